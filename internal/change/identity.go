// Package change models the ways a user names a remote change: a server
// number, a Change-Id trailer, or a topic string.
package change

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind discriminates the forms an Identity can take.
type Kind int

const (
	// KindNumber is a server-assigned change number, optionally with a
	// patch set ("1234" or "1234/2").
	KindNumber Kind = iota
	// KindChangeID is a stable I-prefixed 40-hex Change-Id trailer.
	KindChangeID
	// KindTopic is a free-form topic string: a local branch name or a
	// server-side topic label.
	KindTopic
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindChangeID:
		return "change-id"
	default:
		return "topic"
	}
}

// Identity is a parsed change reference.
type Identity struct {
	Kind     Kind
	Number   int    // valid when Kind == KindNumber
	PatchSet int    // 0 when unspecified
	ChangeID string // valid when Kind == KindChangeID
	Topic    string // valid when Kind == KindTopic
}

var (
	numberRE   = regexp.MustCompile(`^([1-9][0-9]*)(?:/([0-9]+))?$`)
	changeIDRE = regexp.MustCompile(`^I[0-9a-f]{40}$`)
)

// Parse classifies a change reference. Numbers and Change-Ids are
// unambiguous; everything else is a topic. A signed form like "-1234" is
// accepted as a number for callers that take signed positional arguments.
func Parse(s string) (Identity, error) {
	if s == "" {
		return Identity{}, fmt.Errorf("empty change reference")
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if m := numberRE.FindStringSubmatch(s); m != nil {
		num, _ := strconv.Atoi(m[1])
		id := Identity{Kind: KindNumber, Number: num}
		if m[2] != "" {
			ps, err := strconv.Atoi(m[2])
			if err != nil || ps == 0 {
				return Identity{}, fmt.Errorf("invalid patch set in %q", s)
			}
			id.PatchSet = ps
		}
		return id, nil
	}
	if changeIDRE.MatchString(s) {
		return Identity{Kind: KindChangeID, ChangeID: s}, nil
	}
	return Identity{Kind: KindTopic, Topic: s}, nil
}

// QueryTerm returns the Gerrit search operator matching this identity.
func (id Identity) QueryTerm() string {
	switch id.Kind {
	case KindNumber:
		return "change:" + strconv.Itoa(id.Number)
	case KindChangeID:
		return "change:" + id.ChangeID
	default:
		return "topic:" + id.Topic
	}
}

func (id Identity) String() string {
	switch id.Kind {
	case KindNumber:
		if id.PatchSet > 0 {
			return fmt.Sprintf("%d/%d", id.Number, id.PatchSet)
		}
		return strconv.Itoa(id.Number)
	case KindChangeID:
		return id.ChangeID
	default:
		return id.Topic
	}
}

// PatchSetRef returns the refs/changes/... ref for a change number and patch
// set, e.g. refs/changes/34/1234/2. The group directory is the last two
// digits of the number, zero padded.
func PatchSetRef(number, patchSet int) string {
	group := fmt.Sprintf("%02d", number%100)
	return fmt.Sprintf("refs/changes/%s/%d/%d", group, number, patchSet)
}
