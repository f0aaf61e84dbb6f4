package hook

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var changeIDRE = regexp.MustCompile(`(?m)^Change-Id: I[0-9a-f]{40}$`)

func TestGenerateChangeID(t *testing.T) {
	id := GenerateChangeID("Fix login")
	if !regexp.MustCompile(`^I[0-9a-f]{40}$`).MatchString(id) {
		t.Errorf("GenerateChangeID = %q, not an I-prefixed 40-hex id", id)
	}
	if GenerateChangeID("Fix login") == id {
		t.Error("two generated ids for the same subject collided")
	}
}

func TestAmend(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantChanged bool
		check       func(t *testing.T, out string)
	}{
		{
			name:        "plain message gets a trailer paragraph",
			message:     "Fix login\n",
			wantChanged: true,
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "Fix login\n\nChange-Id: I") {
					t.Errorf("trailer not in its own paragraph:\n%s", out)
				}
			},
		},
		{
			name:        "existing trailer block is extended in place",
			message:     "Fix login\n\nSigned-off-by: A <a@example.com>\n",
			wantChanged: true,
			check: func(t *testing.T, out string) {
				if strings.Contains(out, "Signed-off-by: A <a@example.com>\n\nChange-Id:") {
					t.Errorf("trailer started a new paragraph instead of extending the block:\n%s", out)
				}
				if !strings.Contains(out, "Signed-off-by: A <a@example.com>\nChange-Id:") {
					t.Errorf("trailer not appended to the block:\n%s", out)
				}
			},
		},
		{
			name:        "existing change id is untouched",
			message:     "Fix login\n\nChange-Id: I1111111111111111111111111111111111111111\n",
			wantChanged: false,
		},
		{
			name:        "comment-only message is untouched",
			message:     "# Please enter the commit message\n#\n",
			wantChanged: false,
		},
		{
			name:        "comments do not hide an existing trailer",
			message:     "Fix\n\nChange-Id: I1111111111111111111111111111111111111111\n# comment\n",
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := Amend(tt.message)
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v (output %q)", changed, tt.wantChanged, out)
			}
			if !changed && out != tt.message {
				t.Errorf("unchanged amend modified the message: %q", out)
			}
			if changed && !changeIDRE.MatchString(out) {
				t.Errorf("no valid trailer in output:\n%s", out)
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestApply(t *testing.T) {
	file := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	if err := os.WriteFile(file, []byte("Fix login\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Apply(file); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !changeIDRE.MatchString(string(data)) {
		t.Errorf("no trailer written:\n%s", data)
	}

	// A second run must not add a second trailer.
	if err := Apply(file); err != nil {
		t.Fatal(err)
	}
	again, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Error("second apply modified an already stamped message")
	}
}

func TestInstall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commit-msg")
	if Installed(path) {
		t.Error("Installed reported true for a missing hook")
	}
	if err := Install(path); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	if !Installed(path) {
		t.Error("Installed reported false after install")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o111 == 0 {
		t.Error("hook is not executable")
	}
}
