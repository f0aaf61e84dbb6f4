package query

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Token binds a single-letter format token to a PatchRecord field. The
// token table is the single source of truth: rendering, the vertical
// layout's labels, and the embedded help text all derive from it.
type Token struct {
	Letter  byte
	Label   string
	Extract func(PatchRecord) string
}

// tokens is the stable, documented token set.
var tokens = []Token{
	{'n', "Number", func(r PatchRecord) string { return fmt.Sprintf("%d", r.Number) }},
	{'o', "Owner", func(r PatchRecord) string { return r.Owner }},
	{'s', "Subject", func(r PatchRecord) string { return r.Subject }},
	{'b', "Branch", func(r PatchRecord) string { return r.Branch }},
	{'t', "Topic", func(r PatchRecord) string { return r.Topic }},
	{'a', "Age", func(r PatchRecord) string { return FormatAge(r.Age) }},
	{'r', "Reviewers", func(r PatchRecord) string { return strings.Join(r.Reviewers, ",") }},
	{'f', "Flags", func(r PatchRecord) string { return flagString(r) }},
}

// flagString renders the boolean attributes as a compact marker string:
// one letter per set flag, "-" when none.
func flagString(r PatchRecord) string {
	var b strings.Builder
	for _, f := range []struct {
		set    bool
		marker byte
	}{
		{r.Starred, '*'},
		{r.Watched, 'w'},
		{r.Draft, 'd'},
		{r.Reviewed, 'r'},
		{r.Assigned, 'a'},
		{r.Mine, 'm'},
	} {
		if f.set {
			b.WriteByte(f.marker)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func tokenByLetter(letter byte) *Token {
	for i := range tokens {
		if tokens[i].Letter == letter {
			return &tokens[i]
		}
	}
	return nil
}

// TokenHelp returns the documented token list for embedded command help.
func TokenHelp() string {
	var b strings.Builder
	for _, t := range tokens {
		fmt.Fprintf(&b, "  %%%c  %s\n", t.Letter, t.Label)
	}
	return b.String()
}

// InvalidFormatError names a token letter the format string used but the
// table does not define. An empty Token means the string ended on a bare
// percent sign. Bad tokens fail loudly instead of passing through: silent
// literal output hides user error.
type InvalidFormatError struct {
	Token string
}

func (e *InvalidFormatError) Error() string {
	if e.Token == "" {
		return "format string ends with an unterminated % (write %% for a literal percent)"
	}
	return fmt.Sprintf("unknown format token %%%s (see 'patches --help' for the token list)", e.Token)
}

// Layout selects one of the fixed render layouts.
type Layout int

const (
	// LayoutTable is the default: fixed-width columns, one row per record.
	LayoutTable Layout = iota
	// LayoutVertical renders one record per block, one field per line.
	LayoutVertical
	// LayoutOneline substitutes a token string per record.
	LayoutOneline
)

// formatItem is either literal text or a token reference.
type formatItem struct {
	literal string
	token   *Token
}

// FormatSpec is a parsed token format string.
type FormatSpec struct {
	items []formatItem
}

// ParseFormat parses a format string such as "%n %s (%o)". "%%" is a
// literal percent sign.
func ParseFormat(format string) (*FormatSpec, error) {
	spec := &FormatSpec{}
	var literal strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			literal.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return nil, &InvalidFormatError{Token: ""}
		}
		i++
		if format[i] == '%' {
			literal.WriteByte('%')
			continue
		}
		t := tokenByLetter(format[i])
		if t == nil {
			return nil, &InvalidFormatError{Token: string(format[i])}
		}
		if literal.Len() > 0 {
			spec.items = append(spec.items, formatItem{literal: literal.String()})
			literal.Reset()
		}
		spec.items = append(spec.items, formatItem{token: t})
	}
	if literal.Len() > 0 {
		spec.items = append(spec.items, formatItem{literal: literal.String()})
	}
	return spec, nil
}

// Expand substitutes the format tokens for one record.
func (s *FormatSpec) Expand(rec PatchRecord) string {
	var b strings.Builder
	for _, item := range s.items {
		if item.token != nil {
			b.WriteString(item.token.Extract(rec))
		} else {
			b.WriteString(item.literal)
		}
	}
	return b.String()
}

// defaultOnelineFormat is used by the oneline layout when no explicit
// format string is given.
const defaultOnelineFormat = "%n %a %o %s"

// tableColumns are the token letters shown by the table layout, in order.
var tableColumns = []byte{'n', 'f', 'a', 'o', 'b', 's'}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle()
)

// Renderer renders records in a layout, or with a custom token format.
type Renderer struct {
	layout Layout
	format *FormatSpec
}

// NewRenderer creates a renderer for a fixed layout.
func NewRenderer(layout Layout) *Renderer {
	return &Renderer{layout: layout}
}

// NewFormatRenderer creates a oneline renderer with a custom format string.
func NewFormatRenderer(format string) (*Renderer, error) {
	spec, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return &Renderer{layout: LayoutOneline, format: spec}, nil
}

// Render produces the listing text for the records.
func (r *Renderer) Render(records []PatchRecord) string {
	switch r.layout {
	case LayoutVertical:
		return renderVertical(records)
	case LayoutOneline:
		spec := r.format
		if spec == nil {
			spec, _ = ParseFormat(defaultOnelineFormat)
		}
		var b strings.Builder
		for _, rec := range records {
			b.WriteString(spec.Expand(rec))
			b.WriteByte('\n')
		}
		return b.String()
	default:
		return renderTable(records)
	}
}

func renderTable(records []PatchRecord) string {
	if len(records) == 0 {
		return ""
	}
	cols := make([]*Token, len(tableColumns))
	widths := make([]int, len(tableColumns))
	for i, letter := range tableColumns {
		cols[i] = tokenByLetter(letter)
		widths[i] = len(cols[i].Label)
	}
	rows := make([][]string, len(records))
	for ri, rec := range records {
		row := make([]string, len(cols))
		for ci, col := range cols {
			row[ci] = col.Extract(rec)
			if len(row[ci]) > widths[ci] {
				widths[ci] = len(row[ci])
			}
		}
		rows[ri] = row
	}

	var b strings.Builder
	for ci, col := range cols {
		b.WriteString(headerStyle.Width(widths[ci] + 2).Render(strings.ToUpper(col.Label)))
	}
	b.WriteByte('\n')
	for _, row := range rows {
		for ci, cell := range row {
			b.WriteString(cellStyle.Width(widths[ci] + 2).Render(cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func renderVertical(records []PatchRecord) string {
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, t := range tokens {
			fmt.Fprintf(&b, "%s: %s\n", headerStyle.Render(t.Label), t.Extract(rec))
		}
	}
	return b.String()
}
