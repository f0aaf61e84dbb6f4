// Package hook manages the commit-msg hook that stamps Change-Id
// trailers onto new commits.
package hook

import (
	"crypto/sha1"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Script is the commit-msg hook installed into each repository. It
// delegates to the CLI so the trailer logic lives in one place.
const Script = `#!/bin/sh
# Installed by gerrit-cli. Adds a Change-Id trailer to new commits.
exec gerrit-cli hook commit-msg "$1"
`

// GenerateChangeID returns a fresh Change-Id for a commit with the
// given subject. The subject only seeds the hash; uniqueness comes
// from the random component.
func GenerateChangeID(subject string) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s %s", uuid.NewString(), subject)
	return fmt.Sprintf("I%x", h.Sum(nil))
}

// Install writes the commit-msg hook at path, replacing whatever is
// there. Gerrit repositories need the hook before the first push.
func Install(path string) error {
	if err := os.WriteFile(path, []byte(Script), 0o755); err != nil {
		return fmt.Errorf("installing commit-msg hook: %w", err)
	}
	return nil
}

// Installed reports whether the hook at path is ours.
func Installed(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "gerrit-cli hook commit-msg")
}

// Apply rewrites the commit message in file to carry a Change-Id
// trailer, generating one when the message has none. Messages that
// already carry a trailer are left untouched.
func Apply(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading commit message: %w", err)
	}
	out, changed := Amend(string(data))
	if !changed {
		return nil
	}
	if err := os.WriteFile(file, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing commit message: %w", err)
	}
	return nil
}

// Amend returns the message with a Change-Id trailer appended, and
// whether it modified the message. Comment lines and diff sections
// from a verbose commit template are ignored when scanning.
func Amend(message string) (string, bool) {
	body, subject := stripComments(message)
	if subject == "" {
		return message, false
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "Change-Id: ") {
			return message, false
		}
	}

	trailer := "Change-Id: " + GenerateChangeID(subject)
	body = strings.TrimRight(body, "\n")

	// A trailer block already at the end extends in place, otherwise
	// the trailer starts its own paragraph.
	lines := strings.Split(body, "\n")
	last := lines[len(lines)-1]
	if len(lines) > 1 && isTrailerLine(last) {
		return body + "\n" + trailer + "\n", true
	}
	return body + "\n\n" + trailer + "\n", true
}

func stripComments(message string) (body, subject string) {
	var b strings.Builder
	for _, line := range strings.Split(message, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if subject == "" && strings.TrimSpace(line) != "" {
			subject = strings.TrimSpace(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), subject
}

func isTrailerLine(line string) bool {
	i := strings.Index(line, ": ")
	if i <= 0 {
		return false
	}
	key := line[:i]
	for _, r := range key {
		if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
