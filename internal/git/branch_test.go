package git

import (
	"testing"
	"time"
)

const (
	testID1 = "I1111111111111111111111111111111111111111"
	testID2 = "I2222222222222222222222222222222222222222"
)

func TestParsePendingLog(t *testing.T) {
	// Two commits the way git log emits them: newest first, fields
	// separated by NUL, records separated by newline.
	out := "bbbb000\x00bbbb\x00aaaa000\x00Second change\x001700000100\x00Second change\n\nChange-Id: " + testID2 + "\n\x00\n" +
		"aaaa000\x00aaaa\x00999 888\x00First change\x001700000000\x00First change\n\nChange-Id: " + testID1 + "\n\x00"

	commits, err := parsePendingLog(out)
	if err != nil {
		t.Fatalf("parsePendingLog returned error: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}

	first, second := commits[0], commits[1]
	if first.Hash != "aaaa000" || second.Hash != "bbbb000" {
		t.Errorf("commits not in oldest-first order: %q, %q", first.Hash, second.Hash)
	}
	if first.Subject != "First change" {
		t.Errorf("Subject = %q, want %q", first.Subject, "First change")
	}
	if first.ChangeID != testID1 || second.ChangeID != testID2 {
		t.Errorf("ChangeIDs = %q, %q", first.ChangeID, second.ChangeID)
	}
	if first.Parent != "999" {
		t.Errorf("Parent = %q, want first parent only", first.Parent)
	}
	if !first.AuthorTime.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("AuthorTime = %v", first.AuthorTime)
	}
}

func TestParsePendingLogEmpty(t *testing.T) {
	commits, err := parsePendingLog("")
	if err != nil {
		t.Fatalf("parsePendingLog(\"\") returned error: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("got %d commits from empty log, want 0", len(commits))
	}
}

func TestParsePendingLogBadTimestamp(t *testing.T) {
	out := "aaaa\x00a\x00\x00Subject\x00not-a-number\x00Subject\x00"
	if _, err := parsePendingLog(out); err == nil {
		t.Error("parsePendingLog accepted a malformed timestamp")
	}
}

func TestChangeIDFromMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{
			name: "trailer present",
			msg:  "Fix the thing\n\nChange-Id: " + testID1 + "\n",
			want: testID1,
		},
		{
			name: "trailer with surrounding trailers",
			msg:  "Fix\n\nSigned-off-by: A <a@example.com>\nChange-Id: " + testID2 + "\nReviewed-by: B\n",
			want: testID2,
		},
		{
			name: "indented trailer",
			msg:  "Fix\n\n  Change-Id: " + testID1 + "\n",
			want: testID1,
		},
		{
			name: "no trailer",
			msg:  "Fix the thing\n",
			want: "",
		},
		{
			name: "mention mid-line is not a trailer",
			msg:  "Fix\n\nSee Change-Id: discussion\n",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChangeIDFromMessage(tt.msg); got != tt.want {
				t.Errorf("ChangeIDFromMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpstreamName(t *testing.T) {
	tests := []struct {
		upstream string
		want     string
	}{
		{"origin/main", "main"},
		{"origin/release/1.0", "release/1.0"},
		{"main", "main"},
	}
	for _, tt := range tests {
		b := &Branch{Name: "x", Upstream: tt.upstream}
		if got := b.UpstreamName(); got != tt.want {
			t.Errorf("UpstreamName(%q) = %q, want %q", tt.upstream, got, tt.want)
		}
	}
}
