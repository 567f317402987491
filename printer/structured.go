/*

Package printer holds the two pretty-printers: Structured reprints a
model.CodeBlock as indented, C-like pseudo-source; CFG walks a lowered
cfg.Program and dumps each reachable node under a stable decimal name.

Both build their output as a growing []byte, in the style of the
compiler's own format package, rather than through an io.Writer or a
strings.Builder — appends are cheap and the caller decides what to do
with the result (write it, hash it, diff it in a test).

*/
package printer

import (
	"context"
	"fmt"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"cflow/model"
)

// UnknownConstructError mirrors cfg.UnknownConstructError: it can only be
// raised if model.Item is implemented outside package model.
type UnknownConstructError struct {
	Item any
}

func (e UnknownConstructError) Error() string {
	return fmt.Sprintf("unknown construct: %T", e.Item)
}

// Structured renders root as indented pseudo-source per the textual dump
// format: two-space indent, every block opening on '{' and closing on
// '}', each followed by a newline.
func Structured[M, C any](ctx context.Context, root *model.CodeBlock[M, C]) ([]byte, error) {
	return structuredBlock(ctx, nil, root, 0)
}

func structuredBlock[M, C any](ctx context.Context, out []byte, b *model.CodeBlock[M, C], d int) (_ []byte, err error) {
	out, err = structuredBlockOpen(ctx, out, b, d)
	if err != nil {
		return nil, err
	}

	out = append(out, "}\n"...)

	return out, nil
}

// structuredBlockOpen writes "{\n", the block's items, and the closing
// brace's indent, but not the brace itself — callers that need something
// other than a bare "}\n" (do-while's "} while (cond);\n") finish the line
// themselves.
func structuredBlockOpen[M, C any](ctx context.Context, out []byte, b *model.CodeBlock[M, C], d int) (_ []byte, err error) {
	out = append(out, "{\n"...)

	for _, item := range b.Items() {
		out, err = structuredItem[M, C](ctx, out, item, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "item")
		}
	}

	out = indent(out, d)

	return out, nil
}

func structuredItem[M, C any](ctx context.Context, out []byte, item model.Item[M, C], d int) (_ []byte, err error) {
	switch it := item.(type) {
	case model.MutationItem[M, C]:
		out = app(out, d, "%v;\n", it.Value)

	case model.ReturnItem[M, C]:
		out = app(out, d, "return;\n")

	case model.ContinueItem[M, C]:
		out = app(out, d, "continue%s;\n", labelRef(it.Target))

	case model.BreakItem[M, C]:
		out = app(out, d, "break%s;\n", labelRef(it.Target))

	case model.IfItem[M, C]:
		out = app(out, d, "if (%v) ", it.Cond)

		out, err = structuredBlock(ctx, out, it.Then, d)
		if err != nil {
			return nil, errors.Wrap(err, "if body")
		}

		out = append(out, '\n')

	case model.IfElseItem[M, C]:
		out = app(out, d, "if (%v) ", it.Cond)

		out, err = structuredBlockOpen(ctx, out, it.Then, d)
		if err != nil {
			return nil, errors.Wrap(err, "then body")
		}

		out = append(out, "}\n"...)
		out = app(out, d, "else      ")

		out, err = structuredBlock(ctx, out, it.Else, d)
		if err != nil {
			return nil, errors.Wrap(err, "else body")
		}

		out = append(out, '\n')

	case model.WhileItem[M, C]:
		out = labelPrefix(out, d, it.Loop)
		out = app(out, d, "while (%v) ", it.Cond)

		out, err = structuredBlock(ctx, out, it.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "while body")
		}

		out = append(out, '\n')

	case model.DoWhileItem[M, C]:
		out = labelPrefix(out, d, it.Loop)
		out = app(out, d, "do ")

		out, err = structuredBlockOpen(ctx, out, it.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "do-while body")
		}

		out = app(out, 0, "} while (%v);\n", it.Cond)
		out = append(out, '\n')

	default:
		return nil, errors.Wrap(UnknownConstructError{Item: item}, "structured print")
	}

	return out, nil
}

func labelPrefix[M, C any](out []byte, d int, l *model.Loop[M, C]) []byte {
	if l.Label() == "" {
		return out
	}

	return app(out, d, "%s:\n", l.Label())
}

func labelRef[M, C any](l *model.Loop[M, C]) string {
	if l.Label() == "" {
		return ""
	}

	return " " + l.Label()
}

func indent(out []byte, d int) []byte {
	for i := 0; i < d; i++ {
		out = append(out, ' ', ' ')
	}

	return out
}

func app(out []byte, d int, f string, args ...any) []byte {
	out = indent(out, d)
	out = hfmt.Appendf(out, f, args...)

	return out
}
