package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Program is a compiled --query expression evaluated against each record.
// It complements flag filters for conditions flags cannot express, e.g.
// `owner == "jsmith" && age_hours > 48 && !draft`.
type Program struct {
	src  string
	prog *vm.Program
}

// CompileQuery compiles a filter expression. The expression must evaluate
// to a boolean.
func CompileQuery(src string) (*Program, error) {
	prog, err := expr.Compile(src, expr.Env(map[string]interface{}{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid query expression %q: %w", src, err)
	}
	return &Program{src: src, prog: prog}, nil
}

// Matches evaluates the expression for one record.
func (p *Program) Matches(rec PatchRecord) (bool, error) {
	env := map[string]interface{}{
		"number":    rec.Number,
		"owner":     rec.Owner,
		"subject":   rec.Subject,
		"branch":    rec.Branch,
		"topic":     rec.Topic,
		"age_hours": rec.Age.Hours(),
		"age_days":  rec.Age.Hours() / 24,
		"starred":   rec.Starred,
		"watched":   rec.Watched,
		"draft":     rec.Draft,
		"reviewed":  rec.Reviewed,
		"assigned":  rec.Assigned,
		"mine":      rec.Mine,
		"reviewers": rec.Reviewers,
	}
	out, err := expr.Run(p.prog, env)
	if err != nil {
		return false, fmt.Errorf("query expression %q: %w", p.src, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("query expression %q did not evaluate to a boolean", p.src)
	}
	return ok, nil
}

// ApplyProgram filters records through a compiled expression.
func ApplyProgram(p *Program, records []PatchRecord) ([]PatchRecord, error) {
	var out []PatchRecord
	for _, rec := range records {
		ok, err := p.Matches(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
