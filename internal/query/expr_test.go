package query

import (
	"testing"
	"time"
)

func TestCompileQuery(t *testing.T) {
	if _, err := CompileQuery(`owner == "jsmith" && !draft`); err != nil {
		t.Fatalf("CompileQuery returned error: %v", err)
	}
	if _, err := CompileQuery(`owner ==`); err == nil {
		t.Error("CompileQuery accepted a malformed expression")
	}
	if _, err := CompileQuery(`1 + 2`); err == nil {
		t.Error("CompileQuery accepted a non-boolean expression")
	}
}

func TestProgramMatches(t *testing.T) {
	rec := PatchRecord{
		Number:    101,
		Owner:     "jsmith",
		Subject:   "Fix login",
		Branch:    "main",
		Age:       3 * 24 * time.Hour,
		Reviewers: []string{"alice"},
	}

	tests := []struct {
		src  string
		want bool
	}{
		{`owner == "jsmith"`, true},
		{`owner == "alice"`, false},
		{`age_days > 2`, true},
		{`age_hours < 48`, false},
		{`!draft && branch == "main"`, true},
		{`"alice" in reviewers`, true},
		{`number in [100, 101]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := CompileQuery(tt.src)
			if err != nil {
				t.Fatalf("CompileQuery returned error: %v", err)
			}
			got, err := p.Matches(rec)
			if err != nil {
				t.Fatalf("Matches returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyProgram(t *testing.T) {
	p, err := CompileQuery(`owner == "jsmith" && !draft`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ApplyProgram(p, sampleRecords())
	if err != nil {
		t.Fatalf("ApplyProgram returned error: %v", err)
	}
	if nums := numbers(got); !equalInts(nums, []int{101}) {
		t.Errorf("ApplyProgram = %v, want [101]", nums)
	}
}
