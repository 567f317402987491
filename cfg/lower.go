package cfg

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"cflow/model"
)

// setter is a deferred wiring action: "set my successor to n once you know
// it". The design-notes tagged-variant alternative (spec §9) is not taken
// here — a closure is the direct, idiomatic Go expression of the same
// idea and nothing downstream needs to inspect or serialise it.
type setter[M, C any] func(n Node[M, C])

func noop[M, C any](Node[M, C]) {}

// subgraph is a partially lowered CodeBlock: a known entry node plus a
// deferred action that wires the subgraph's single external successor.
// A nil *subgraph denotes the empty subgraph (the block lowered to
// nothing, e.g. because every item was dropped or the block was empty).
type subgraph[M, C any] struct {
	entry Node[M, C]
	exit  setter[M, C]
}

// loopRecord is the active-loop-map entry for one while/do-while: the
// branch continue jumps to, and the break-destination setters registered
// by break statements nested anywhere in the loop's body, fired once the
// loop's post-exit join node is known.
type loopRecord[M, C any] struct {
	branch *BranchBlock[M, C]
	breaks []setter[M, C]
}

// blockState is the builder state threaded through one call to lowerBlock,
// per spec §4.2.1.
type blockState[M, C any] struct {
	initial Node[M, C]
	open    *BasicBlock[M, C]
	pending setter[M, C]
}

type lowerer[M, C any] struct {
	loops map[*model.Loop[M, C]]*loopRecord[M, C]

	// stubs holds every placeholder block minted for a break that is the
	// first thing lowered in its block (see the BreakItem case below).
	// Lower elides them once every loop's breaks have fired.
	stubs []*BasicBlock[M, C]
}

func newLowerer[M, C any]() *lowerer[M, C] {
	return &lowerer[M, C]{loops: make(map[*model.Loop[M, C]]*loopRecord[M, C])}
}

// advance wires N as the subgraph's next node and adopts cont as the new
// pending continuation, per spec §4.2.2.
func (l *lowerer[M, C]) advance(st *blockState[M, C], n Node[M, C], cont setter[M, C]) {
	switch {
	case st.initial == nil:
		st.initial = n
	case st.pending != nil:
		st.pending(n)
	case st.open != nil:
		st.open.Succ = n
	}

	st.open = nil
	st.pending = cont
}

func finalize[M, C any](st *blockState[M, C]) *subgraph[M, C] {
	if st.initial == nil {
		return nil
	}

	exit := st.pending

	if st.open != nil {
		ob := st.open
		exit = func(x Node[M, C]) { ob.Succ = x }
	}

	return &subgraph[M, C]{entry: st.initial, exit: exit}
}

// lowerBlock is the recursive descent of spec §4.2.3: it walks b's items
// in order, advancing the block's builder state, and stops (dropping any
// remaining items) at the first Return/Continue/Break.
func (l *lowerer[M, C]) lowerBlock(ctx context.Context, b *model.CodeBlock[M, C]) (*subgraph[M, C], error) {
	st := &blockState[M, C]{}

	for _, item := range b.Items() {
		switch it := item.(type) {
		case model.MutationItem[M, C]:
			if st.open == nil {
				nb := &BasicBlock[M, C]{}
				l.advance(st, nb, nil)
				st.open = nb
			}

			st.open.Mutations = append(st.open.Mutations, it.Value)

		case model.ReturnItem[M, C]:
			l.advance(st, Return, noop[M, C])

			return finalize(st), nil

		case model.ContinueItem[M, C]:
			rec, ok := l.loops[it.Target]
			if !ok {
				return nil, errors.Wrap(ErrInvalidLoopTarget, "continue")
			}

			l.advance(st, rec.branch, noop[M, C])

			return finalize(st), nil

		case model.BreakItem[M, C]:
			rec, ok := l.loops[it.Target]
			if !ok {
				return nil, errors.Wrap(ErrInvalidLoopTarget, "break")
			}

			if st.initial == nil {
				// Nothing precedes the break in this block, so finalize
				// would otherwise hand the caller the empty subgraph and
				// the jump would be lost (an enclosing If drops an empty
				// arm entirely). Give the block a throwaway entry whose
				// successor the loop's break continuation patches once
				// the post-loop join node exists; Lower elides it.
				stub := &BasicBlock[M, C]{}
				l.stubs = append(l.stubs, stub)
				l.advance(st, stub, noop[M, C])
				rec.breaks = append(rec.breaks, func(x Node[M, C]) { stub.Succ = x })
			} else {
				captured := st
				rec.breaks = append(rec.breaks, func(x Node[M, C]) {
					l.advance(captured, x, noop[M, C])
				})
			}

			return finalize(st), nil

		case model.IfItem[M, C]:
			sub, err := l.lowerBlock(ctx, it.Then)
			if err != nil {
				return nil, errors.Wrap(err, "if body")
			}

			if sub == nil {
				continue
			}

			branch := &BranchBlock[M, C]{Cond: it.Cond, True: sub.entry}
			cont := func(j Node[M, C]) {
				branch.False = j
				sub.exit(j)
			}

			l.advance(st, branch, cont)

		case model.IfElseItem[M, C]:
			thenSub, err := l.lowerBlock(ctx, it.Then)
			if err != nil {
				return nil, errors.Wrap(err, "if-else then")
			}

			elseSub, err := l.lowerBlock(ctx, it.Else)
			if err != nil {
				return nil, errors.Wrap(err, "if-else else")
			}

			switch {
			case thenSub == nil && elseSub == nil:
				continue

			case elseSub == nil:
				branch := &BranchBlock[M, C]{Cond: it.Cond, True: thenSub.entry}
				cont := func(j Node[M, C]) {
					branch.False = j
					thenSub.exit(j)
				}

				l.advance(st, branch, cont)

			case thenSub == nil:
				branch := &BranchBlock[M, C]{Cond: it.Cond, False: elseSub.entry}
				cont := func(j Node[M, C]) {
					branch.True = j
					elseSub.exit(j)
				}

				l.advance(st, branch, cont)

			default:
				branch := &BranchBlock[M, C]{Cond: it.Cond, True: thenSub.entry, False: elseSub.entry}
				cont := func(j Node[M, C]) {
					thenSub.exit(j)
					elseSub.exit(j)
				}

				l.advance(st, branch, cont)
			}

		case model.WhileItem[M, C]:
			entry, cont, err := l.lowerLoop(ctx, it.Cond, it.Body, it.Loop, false)
			if err != nil {
				return nil, errors.Wrap(err, "while")
			}

			l.advance(st, entry, cont)

		case model.DoWhileItem[M, C]:
			entry, cont, err := l.lowerLoop(ctx, it.Cond, it.Body, it.Loop, true)
			if err != nil {
				return nil, errors.Wrap(err, "do-while")
			}

			l.advance(st, entry, cont)

		default:
			return nil, errors.Wrap(UnknownConstructError{Item: item}, "lower block")
		}
	}

	return finalize(st), nil
}

// lowerLoop lowers the body of a while/do-while, registering loopHandle in
// the active loop map before descending so nested break/continue resolve,
// per spec §4.2.3/§4.2.4. It returns the construct's entry node (the
// branch for while, the body's entry for do-while, per spec §4.2.3) and
// the continuation that fixes the branch's false edge and every pending
// break once the post-loop join node is known.
func (l *lowerer[M, C]) lowerLoop(
	ctx context.Context,
	cond C,
	body *model.CodeBlock[M, C],
	loopHandle *model.Loop[M, C],
	isDoWhile bool,
) (Node[M, C], setter[M, C], error) {
	branch := &BranchBlock[M, C]{Cond: cond}
	rec := &loopRecord[M, C]{branch: branch}

	l.loops[loopHandle] = rec
	bodySub, err := l.lowerBlock(ctx, body)
	delete(l.loops, loopHandle)

	if err != nil {
		return nil, nil, err
	}

	var entry Node[M, C]

	if bodySub == nil {
		branch.True = branch
		entry = branch
	} else {
		branch.True = bodySub.entry
		bodySub.exit(branch)

		if isDoWhile {
			entry = bodySub.entry
		} else {
			entry = branch
		}
	}

	cont := func(j Node[M, C]) {
		branch.False = j

		for _, brk := range rec.breaks {
			brk(j)
		}
	}

	return entry, cont, nil
}

// Lower is the to_program() entrypoint of spec §4.2.6/§6: it lowers root
// and wires its exit to RETURN, producing a well-formed Program.
func Lower[M, C any](ctx context.Context, root *model.CodeBlock[M, C]) (_ *Program[M, C], err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "cfg: lower")
	defer tr.Finish("err", &err)

	l := newLowerer[M, C]()

	sub, err := l.lowerBlock(ctx, root)
	if err != nil {
		return nil, errors.Wrap(err, "lower root block")
	}

	var entry Node[M, C]

	if sub == nil {
		entry = Return
	} else {
		sub.exit(Return)
		entry = sub.entry
	}

	entry = elideStubs(entry, l.stubs)
	nodes := reachable[M, C](entry)

	tr.Printw("lowered", "nodes", len(nodes))

	return &Program[M, C]{Entry: entry, Nodes: nodes}, nil
}

// elideStubs removes the break placeholder blocks minted by the BreakItem
// case from the finished graph, patching every surviving reference to
// point straight at the real node each stub was standing in for. By the
// time Lower calls this, every loop's break continuation has already
// fired (wiring happens synchronously on the way back up through
// lowerBlock/lowerLoop), so each stub's Succ is already its resolved
// target.
func elideStubs[M, C any](entry Node[M, C], stubs []*BasicBlock[M, C]) Node[M, C] {
	if len(stubs) == 0 {
		return entry
	}

	isStub := make(map[*BasicBlock[M, C]]bool, len(stubs))
	for _, s := range stubs {
		isStub[s] = true
	}

	resolve := func(n Node[M, C]) Node[M, C] {
		for {
			bb, ok := n.(*BasicBlock[M, C])
			if !ok || !isStub[bb] {
				return n
			}

			n = bb.Succ
		}
	}

	for _, s := range stubs {
		s.Succ = resolve(s.Succ)
	}

	entry = resolve(entry)

	visited := make(map[Node[M, C]]bool)

	var walk func(n Node[M, C])

	walk = func(n Node[M, C]) {
		if n == nil || IsReturn[M, C](n) || visited[n] {
			return
		}

		visited[n] = true

		switch b := n.(type) {
		case *BasicBlock[M, C]:
			if !isStub[b] {
				b.Succ = resolve(b.Succ)
				walk(b.Succ)
			}
		case *BranchBlock[M, C]:
			b.True = resolve(b.True)
			b.False = resolve(b.False)
			walk(b.True)
			walk(b.False)
		}
	}

	walk(entry)

	return entry
}

// reachable walks the graph from entry, collecting every non-RETURN node
// in first-encounter order.
func reachable[M, C any](entry Node[M, C]) []Node[M, C] {
	if IsReturn[M, C](entry) {
		return nil
	}

	visited := make(map[Node[M, C]]bool)

	var order []Node[M, C]

	var walk func(n Node[M, C])

	walk = func(n Node[M, C]) {
		if n == nil || IsReturn[M, C](n) || visited[n] {
			return
		}

		visited[n] = true
		order = append(order, n)

		switch b := n.(type) {
		case *BasicBlock[M, C]:
			walk(b.Succ)
		case *BranchBlock[M, C]:
			walk(b.True)
			walk(b.False)
		}
	}

	walk(entry)

	return order
}
