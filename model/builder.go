package model

import "tlog.app/go/errors"

// AddMutation appends a mutation to the block.
func (b *CodeBlock[M, C]) AddMutation(m M) {
	b.items = append(b.items, MutationItem[M, C]{Value: m})
}

// AddReturn appends a return. Anything appended after it is unreachable —
// the builder does not prevent this, it is lowered away (spec §4.2.3).
func (b *CodeBlock[M, C]) AddReturn() {
	b.items = append(b.items, ReturnItem[M, C]{})
}

// AddIf opens an if and returns its then-block.
func (b *CodeBlock[M, C]) AddIf(cond C) *CodeBlock[M, C] {
	then := &CodeBlock[M, C]{parent: b}
	b.items = append(b.items, IfItem[M, C]{Cond: cond, Then: then})

	return then
}

// AddIfElse opens an if-else and returns (then, else).
func (b *CodeBlock[M, C]) AddIfElse(cond C) (*CodeBlock[M, C], *CodeBlock[M, C]) {
	then := &CodeBlock[M, C]{parent: b}
	els := &CodeBlock[M, C]{parent: b}

	b.items = append(b.items, IfElseItem[M, C]{Cond: cond, Then: then, Else: els})

	return then, els
}

// AddWhile opens a while loop and returns its body block and loop handle.
// An optional label may be given; it is otherwise unused by lowering and
// exists only for the pretty-printers.
func (b *CodeBlock[M, C]) AddWhile(cond C, label ...string) (*CodeBlock[M, C], *Loop[M, C]) {
	l := newLoop[M, C](label...)
	body := &CodeBlock[M, C]{parent: b, loop: l}

	b.items = append(b.items, WhileItem[M, C]{Cond: cond, Body: body, Loop: l})

	return body, l
}

// AddDoWhile opens a do-while loop and returns its body block and loop
// handle.
func (b *CodeBlock[M, C]) AddDoWhile(cond C, label ...string) (*CodeBlock[M, C], *Loop[M, C]) {
	l := newLoop[M, C](label...)
	body := &CodeBlock[M, C]{parent: b, loop: l}

	b.items = append(b.items, DoWhileItem[M, C]{Cond: cond, Body: body, Loop: l})

	return body, l
}

// AddContinue targets the nearest lexically enclosing loop. It fails with
// ErrNoEnclosingLoop if the block has none.
func (b *CodeBlock[M, C]) AddContinue() error {
	l, err := b.nearestEnclosingLoop()
	if err != nil {
		return errors.Wrap(err, "add continue")
	}

	b.items = append(b.items, ContinueItem[M, C]{Target: l})

	return nil
}

// AddBreak targets the nearest lexically enclosing loop. It fails with
// ErrNoEnclosingLoop if the block has none.
func (b *CodeBlock[M, C]) AddBreak() error {
	l, err := b.nearestEnclosingLoop()
	if err != nil {
		return errors.Wrap(err, "add break")
	}

	b.items = append(b.items, BreakItem[M, C]{Target: l})

	return nil
}

// AddContinueTo targets a specific loop by its handle, whether or not the
// loop has a label. It fails with
// ErrLoopNotEnclosing if l does not enclose this block.
func (b *CodeBlock[M, C]) AddContinueTo(l *Loop[M, C]) error {
	if !b.encloses(l) {
		return errors.Wrap(ErrLoopNotEnclosing, "add continue")
	}

	b.items = append(b.items, ContinueItem[M, C]{Target: l})

	return nil
}

// AddBreakTo targets a specific loop by its handle, whether or not the
// loop has a label. It fails with
// ErrLoopNotEnclosing if l does not enclose this block.
func (b *CodeBlock[M, C]) AddBreakTo(l *Loop[M, C]) error {
	if !b.encloses(l) {
		return errors.Wrap(ErrLoopNotEnclosing, "add break")
	}

	b.items = append(b.items, BreakItem[M, C]{Target: l})

	return nil
}

func (b *CodeBlock[M, C]) nearestEnclosingLoop() (*Loop[M, C], error) {
	for cur := b; cur != nil; cur = cur.parent {
		if cur.loop != nil {
			return cur.loop, nil
		}
	}

	return nil, ErrNoEnclosingLoop
}

func (b *CodeBlock[M, C]) encloses(target *Loop[M, C]) bool {
	for cur := b; cur != nil; cur = cur.parent {
		if cur.loop == target {
			return true
		}
	}

	return false
}
