package printer

import (
	"context"
	"strconv"

	"tlog.app/go/errors"

	"cflow/cfg"
)

// CFG renders prog per the CFG textual dump format: each non-RETURN node
// gets a stable decimal name in first-encounter order (the order Lower
// already leaves prog.Nodes in), RETURN is always named "RETURN", a
// BasicBlock prints its mutations followed by its GOTO, and a BranchBlock
// prints its condition and both destinations.
func CFG[M, C any](ctx context.Context, prog *cfg.Program[M, C]) ([]byte, error) {
	if prog.Empty() {
		return []byte("(EMPTY PROGRAM GRAPH)\n"), nil
	}

	names := make(map[cfg.Node[M, C]]string, len(prog.Nodes))
	for i, n := range prog.Nodes {
		names[n] = strconv.Itoa(i)
	}

	nameOf := func(n cfg.Node[M, C]) string {
		if cfg.IsReturn[M, C](n) {
			return "RETURN"
		}

		return names[n]
	}

	var out []byte

	for _, n := range prog.Nodes {
		var err error

		out, err = cfgNode(out, n, nameOf)
		if err != nil {
			return nil, errors.Wrap(err, "node %s", nameOf(n))
		}
	}

	return out, nil
}

func cfgNode[M, C any](out []byte, n cfg.Node[M, C], nameOf func(cfg.Node[M, C]) string) (_ []byte, err error) {
	switch b := n.(type) {
	case *cfg.BasicBlock[M, C]:
		out = app(out, 0, "BB %s:\n", nameOf(n))

		for _, m := range b.Mutations {
			out = app(out, 1, "%v\n", m)
		}

		out = app(out, 1, "GOTO: %s\n", nameOf(b.Succ))

	case *cfg.BranchBlock[M, C]:
		out = app(out, 0, "BRANCH %s:\n", nameOf(n))
		out = app(out, 1, "COND: %v\n", b.Cond)
		out = app(out, 1, "TRUE DEST: %s\n", nameOf(b.True))
		out = app(out, 1, "FALSE DEST: %s\n", nameOf(b.False))

	default:
		return nil, errors.Wrap(UnknownConstructError{Item: n}, "cfg print")
	}

	return out, nil
}
