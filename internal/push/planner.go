// Package push computes the exact remote ref and options for publishing a
// topic branch to Gerrit. Planning is pure: it validates eagerly and never
// touches the repository or the server, so a failed plan costs nothing.
package push

import (
	"fmt"
	"strings"

	"github.com/osesov/gerrit-cli/internal/git"
)

// Options are the caller-supplied inputs to a push plan.
type Options struct {
	// BranchOverride targets a different remote branch than the upstream.
	BranchOverride string
	// Topic labels the resulting changes on the server. Empty means derive
	// from the local branch name; NoTopic suppresses the label entirely.
	Topic   string
	NoTopic bool
	// Draft pushes to the hidden draft namespace.
	Draft bool
	// Force acknowledges the draft guard (see Plan.NeedsConfirm).
	Force     bool
	Hashtags  []string
	Comment   string
	Reviewers []string
	CC        []string
}

// Plan is the computed push: destination ref, full refspec with receiver
// options, and the draft-guard verdict. Plans are ephemeral and never
// persisted.
type Plan struct {
	Target string // remote branch name, e.g. "main"
	Topic  string // topic label, "" when suppressed
	Draft  bool
	Ref    string // destination ref, e.g. refs/for/main/fix-auth
	// NeedsConfirm is set when the branch was previously pushed as a draft
	// and this plan would publish it. The decision belongs to the caller;
	// without confirmation the push must abort.
	NeedsConfirm bool

	receiverOpts []string
}

// RefSpec returns the git refspec pushing local HEAD to the planned ref,
// including receiver options (reviewers, hashtags, comment).
func (p *Plan) RefSpec() string {
	spec := "HEAD:" + p.Ref
	if len(p.receiverOpts) > 0 {
		spec += "%" + strings.Join(p.receiverOpts, ",")
	}
	return spec
}

// NoUpstreamError reports a branch that cannot be pushed because its target
// remote branch is unknown.
type NoUpstreamError struct {
	Branch string
}

func (e *NoUpstreamError) Error() string {
	return fmt.Sprintf("branch %s has no upstream; set one or pass --branch", e.Branch)
}

// NewPlan computes the push plan for a branch. prevDraft is the recorded
// draft state from the branch's last push; pushing non-draft over a prior
// draft raises NeedsConfirm rather than silently flipping visibility.
func NewPlan(b *git.Branch, prevDraft bool, opts Options) (*Plan, error) {
	target := opts.BranchOverride
	if target == "" {
		if !b.HasUpstream() {
			return nil, &NoUpstreamError{Branch: b.Name}
		}
		target = b.UpstreamName()
	}

	topic := opts.Topic
	if topic == "" && !opts.NoTopic {
		topic = b.Name
	}
	if opts.NoTopic {
		topic = ""
	}
	if err := ValidateTopic(topic); err != nil {
		return nil, err
	}

	namespace := "refs/for/"
	if opts.Draft {
		namespace = "refs/drafts/"
	}
	ref := namespace + target
	if topic != "" {
		ref += "/" + topic
	}

	plan := &Plan{
		Target:       target,
		Topic:        topic,
		Draft:        opts.Draft,
		Ref:          ref,
		NeedsConfirm: prevDraft && !opts.Draft && !opts.Force,
	}

	for _, r := range opts.Reviewers {
		if err := validateAddress(r); err != nil {
			return nil, err
		}
		plan.receiverOpts = append(plan.receiverOpts, "r="+r)
	}
	for _, cc := range opts.CC {
		if err := validateAddress(cc); err != nil {
			return nil, err
		}
		plan.receiverOpts = append(plan.receiverOpts, "cc="+cc)
	}
	for _, tag := range opts.Hashtags {
		if err := validateHashtag(tag); err != nil {
			return nil, err
		}
		plan.receiverOpts = append(plan.receiverOpts, "hashtag="+tag)
	}
	if opts.Comment != "" {
		plan.receiverOpts = append(plan.receiverOpts, "m="+encodeComment(opts.Comment))
	}

	return plan, nil
}

// ValidateTopic rejects topics git or the receiver cannot represent. Comma
// is the receiver option separator and cannot be escaped.
func ValidateTopic(topic string) error {
	if strings.ContainsAny(topic, ", ") {
		return fmt.Errorf("topic %q may not contain a comma or space", topic)
	}
	return nil
}

// validateAddress admits short usernames and full mail addresses.
func validateAddress(addr string) error {
	if addr == "" || strings.ContainsAny(addr, ", %") {
		return fmt.Errorf("invalid reviewer address %q", addr)
	}
	return nil
}

// validateHashtag rejects hashtags the receiver option syntax cannot
// carry: comma separates options and percent starts one.
func validateHashtag(tag string) error {
	if tag == "" || strings.ContainsAny(tag, ", %") {
		return fmt.Errorf("invalid hashtag %q", tag)
	}
	return nil
}

// encodeComment encodes a push comment for the receiver option syntax,
// which cannot carry spaces.
func encodeComment(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}
