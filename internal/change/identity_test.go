package change

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Identity
	}{
		{
			name:  "plain number",
			input: "1234",
			want:  Identity{Kind: KindNumber, Number: 1234},
		},
		{
			name:  "number with patch set",
			input: "1234/2",
			want:  Identity{Kind: KindNumber, Number: 1234, PatchSet: 2},
		},
		{
			name:  "signed positive number",
			input: "+1234",
			want:  Identity{Kind: KindNumber, Number: 1234},
		},
		{
			name:  "signed negative number",
			input: "-56",
			want:  Identity{Kind: KindNumber, Number: 56},
		},
		{
			name:  "change id",
			input: "I0123456789abcdef0123456789abcdef01234567",
			want:  Identity{Kind: KindChangeID, ChangeID: "I0123456789abcdef0123456789abcdef01234567"},
		},
		{
			name:  "topic",
			input: "fix-login-flow",
			want:  Identity{Kind: KindTopic, Topic: "fix-login-flow"},
		},
		{
			name:  "short hex is a topic",
			input: "Iabc123",
			want:  Identity{Kind: KindTopic, Topic: "Iabc123"},
		},
		{
			name:  "uppercase hex is a topic",
			input: "I0123456789ABCDEF0123456789ABCDEF01234567",
			want:  Identity{Kind: KindTopic, Topic: "I0123456789ABCDEF0123456789ABCDEF01234567"},
		},
		{
			name:  "leading zero is a topic",
			input: "0123",
			want:  Identity{Kind: KindTopic, Topic: "0123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "1234/0"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
		}
	}
}

func TestQueryTerm(t *testing.T) {
	tests := []struct {
		id   Identity
		want string
	}{
		{Identity{Kind: KindNumber, Number: 42}, "change:42"},
		{Identity{Kind: KindChangeID, ChangeID: "Iabc"}, "change:Iabc"},
		{Identity{Kind: KindTopic, Topic: "my-fix"}, "topic:my-fix"},
	}
	for _, tt := range tests {
		if got := tt.id.QueryTerm(); got != tt.want {
			t.Errorf("QueryTerm(%v) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPatchSetRef(t *testing.T) {
	tests := []struct {
		number, ps int
		want       string
	}{
		{1234, 2, "refs/changes/34/1234/2"},
		{7, 1, "refs/changes/07/7/1"},
		{100, 5, "refs/changes/00/100/5"},
	}
	for _, tt := range tests {
		if got := PatchSetRef(tt.number, tt.ps); got != tt.want {
			t.Errorf("PatchSetRef(%d, %d) = %q, want %q", tt.number, tt.ps, got, tt.want)
		}
	}
}
