/*

Package fixture loads a structured program from a YAML document into a
model.CodeBlock[string, string]. It is a convenience for the demo CLI and
for encoding test scenarios compactly — not a serialisation format for
the CFG itself; the shape it decodes is a data description of the
builder-call tree, never program source text.

*/
package fixture

import (
	"context"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"cflow/model"
)

// Scenario is the top-level YAML document: an ordered list of statements
// making up the program's root block.
type Scenario struct {
	Program []Stmt `yaml:"program"`
}

// Stmt is a tagged union over YAML: exactly one field should be set.
// Which one selects the model item it builds.
type Stmt struct {
	Mutation *string `yaml:"mutation,omitempty"`
	Return   *Empty  `yaml:"return,omitempty"`
	Break    *Jump   `yaml:"break,omitempty"`
	Continue *Jump   `yaml:"continue,omitempty"`
	If       *If     `yaml:"if,omitempty"`
	While    *Loop   `yaml:"while,omitempty"`
	DoWhile  *Loop   `yaml:"do_while,omitempty"`
}

// Empty marks a statement with no payload, e.g. "return: {}".
type Empty struct{}

// Jump names a break/continue target: an empty Loop means the nearest
// enclosing loop, otherwise it must reference a label already assigned
// by an enclosing while/do-while elsewhere in the same document.
type Jump struct {
	Loop string `yaml:"loop,omitempty"`
}

type If struct {
	Cond string `yaml:"cond"`
	Then []Stmt `yaml:"then"`
	Else []Stmt `yaml:"else,omitempty"`
}

type Loop struct {
	Cond  string `yaml:"cond"`
	Label string `yaml:"label,omitempty"`
	Body  []Stmt `yaml:"body"`
}

// Build parses data as a Scenario and drives the builder API to produce
// its root code block.
func Build(ctx context.Context, data []byte) (*model.CodeBlock[string, string], error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "unmarshal fixture")
	}

	root := model.NewCodeBlock[string, string]()

	bd := &builder{labels: map[string]*model.Loop[string, string]{}}
	if err := bd.block(root, sc.Program); err != nil {
		return nil, errors.Wrap(err, "build fixture")
	}

	return root, nil
}

type codeBlock = model.CodeBlock[string, string]

type builder struct {
	labels map[string]*model.Loop[string, string]
}

func (bd *builder) block(dst *codeBlock, stmts []Stmt) error {
	for i, s := range stmts {
		if err := bd.stmt(dst, s); err != nil {
			return errors.Wrap(err, "stmt %d", i)
		}
	}

	return nil
}

func (bd *builder) stmt(dst *codeBlock, s Stmt) error {
	switch {
	case s.Mutation != nil:
		dst.AddMutation(*s.Mutation)
		return nil

	case s.Return != nil:
		dst.AddReturn()
		return nil

	case s.Break != nil:
		return bd.breakStmt(dst, *s.Break)

	case s.Continue != nil:
		return bd.continueStmt(dst, *s.Continue)

	case s.If != nil:
		return bd.ifStmt(dst, *s.If)

	case s.While != nil:
		return bd.loop(dst, *s.While, dst.AddWhile)

	case s.DoWhile != nil:
		return bd.loop(dst, *s.DoWhile, dst.AddDoWhile)

	default:
		return errors.New("statement has no recognised field set")
	}
}

func (bd *builder) breakStmt(dst *codeBlock, j Jump) error {
	if j.Loop == "" {
		return dst.AddBreak()
	}

	l, ok := bd.labels[j.Loop]
	if !ok {
		return errors.New("break: unresolved loop label %q", j.Loop)
	}

	return dst.AddBreakTo(l)
}

func (bd *builder) continueStmt(dst *codeBlock, j Jump) error {
	if j.Loop == "" {
		return dst.AddContinue()
	}

	l, ok := bd.labels[j.Loop]
	if !ok {
		return errors.New("continue: unresolved loop label %q", j.Loop)
	}

	return dst.AddContinueTo(l)
}

func (bd *builder) ifStmt(dst *codeBlock, spec If) error {
	if spec.Else != nil {
		then, els := dst.AddIfElse(spec.Cond)

		if err := bd.block(then, spec.Then); err != nil {
			return errors.Wrap(err, "then")
		}

		return errors.Wrap(bd.block(els, spec.Else), "else")
	}

	then := dst.AddIf(spec.Cond)

	return bd.block(then, spec.Then)
}

func (bd *builder) loop(
	dst *codeBlock,
	spec Loop,
	add func(cond string, label ...string) (*codeBlock, *model.Loop[string, string]),
) error {
	var body *codeBlock

	if spec.Label != "" {
		var l *model.Loop[string, string]

		body, l = add(spec.Cond, spec.Label)
		bd.labels[spec.Label] = l
	} else {
		body, _ = add(spec.Cond)
	}

	return bd.block(body, spec.Body)
}
