package query

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseFormatExpand(t *testing.T) {
	rec := PatchRecord{
		Number:    101,
		Owner:     "jsmith",
		Subject:   "Fix login",
		Branch:    "main",
		Topic:     "login",
		Age:       2 * 24 * time.Hour,
		Reviewers: []string{"alice", "bob"},
	}

	tests := []struct {
		format string
		want   string
	}{
		{"%n %s", "101 Fix login"},
		{"%n %a %o %s", "101 2d jsmith Fix login"},
		{"[%b] %t", "[main] login"},
		{"%r", "alice,bob"},
		{"100%% %n", "100% 101"},
		{"no tokens", "no tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			spec, err := ParseFormat(tt.format)
			if err != nil {
				t.Fatalf("ParseFormat(%q) returned error: %v", tt.format, err)
			}
			if got := spec.Expand(rec); got != tt.want {
				t.Errorf("Expand = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormatUnknownToken(t *testing.T) {
	_, err := ParseFormat("%n %z")
	var ferr *InvalidFormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("ParseFormat = %v, want InvalidFormatError", err)
	}
	if ferr.Token != "z" {
		t.Errorf("Token = %q, want the offending letter named", ferr.Token)
	}

	_, err = ParseFormat("trailing %")
	if !errors.As(err, &ferr) {
		t.Fatalf("ParseFormat accepted a dangling percent: %v", err)
	}
	if !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("dangling percent error = %q, want it reported as unterminated", err)
	}
}

func TestFlagString(t *testing.T) {
	tests := []struct {
		name string
		rec  PatchRecord
		want string
	}{
		{"none", PatchRecord{}, "-"},
		{"starred", PatchRecord{Starred: true}, "*"},
		{"draft and mine", PatchRecord{Draft: true, Mine: true}, "dm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flagString(tt.rec); got != tt.want {
				t.Errorf("flagString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenHelpCoversAllTokens(t *testing.T) {
	help := TokenHelp()
	for _, tok := range tokens {
		if !strings.Contains(help, "%"+string(tok.Letter)) {
			t.Errorf("TokenHelp missing %%%c", tok.Letter)
		}
		if !strings.Contains(help, tok.Label) {
			t.Errorf("TokenHelp missing label %q", tok.Label)
		}
	}
}

func TestRenderOneline(t *testing.T) {
	records := []PatchRecord{
		{Number: 101, Owner: "jsmith", Subject: "Fix login", Age: time.Hour},
		{Number: 103, Owner: "alice", Subject: "Add cache", Age: 24 * time.Hour},
	}
	out := NewRenderer(LayoutOneline).Render(records)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if lines[0] != "101 1h jsmith Fix login" {
		t.Errorf("line 1 = %q", lines[0])
	}
}

func TestRenderCustomFormatFiltered(t *testing.T) {
	// Listing scenario: five patches, owner filter plus draft exclusion
	// leaves exactly one rendered line.
	records := []PatchRecord{
		{Number: 101, Owner: "jsmith", Subject: "Fix login"},
		{Number: 102, Owner: "jsmith", Subject: "Draft rework", Draft: true},
		{Number: 103, Owner: "alice", Subject: "Add cache"},
		{Number: 104, Owner: "bob", Subject: "Update docs"},
		{Number: 105, Owner: "carol", Subject: "Refactor"},
	}
	f := NewFilter()
	if err := f.SetValue(FieldOwner, "jsmith", false); err != nil {
		t.Fatal(err)
	}
	if err := f.SetFlag(FieldDrafts, true); err != nil {
		t.Fatal(err)
	}
	r, err := NewFormatRenderer("%n %s")
	if err != nil {
		t.Fatal(err)
	}
	out := r.Render(f.Apply(records))
	if out != "101 Fix login\n" {
		t.Errorf("Render = %q, want exactly the one matching patch", out)
	}
}

func TestRenderTable(t *testing.T) {
	records := []PatchRecord{
		{Number: 101, Owner: "jsmith", Subject: "Fix login", Branch: "main", Age: time.Hour},
	}
	out := NewRenderer(LayoutTable).Render(records)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header and one row:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "NUMBER") || !strings.Contains(lines[0], "SUBJECT") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "101") || !strings.Contains(lines[1], "Fix login") {
		t.Errorf("row = %q", lines[1])
	}

	if out := NewRenderer(LayoutTable).Render(nil); out != "" {
		t.Errorf("empty table = %q, want empty string", out)
	}
}

func TestRenderVertical(t *testing.T) {
	records := []PatchRecord{{Number: 101, Owner: "jsmith", Subject: "Fix login"}}
	out := NewRenderer(LayoutVertical).Render(records)
	for _, want := range []string{"Number", "101", "Owner", "jsmith", "Subject", "Fix login"} {
		if !strings.Contains(out, want) {
			t.Errorf("vertical output missing %q:\n%s", want, out)
		}
	}
}
