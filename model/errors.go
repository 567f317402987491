package model

import "tlog.app/go/errors"

var (
	// ErrNoEnclosingLoop is returned by AddContinue/AddBreak when no
	// ancestor of the block carries an enclosing loop.
	ErrNoEnclosingLoop = errors.New("no enclosing loop")

	// ErrLoopNotEnclosing is returned by AddContinueTo/AddBreakTo when the
	// given loop handle is not an ancestor of the block.
	ErrLoopNotEnclosing = errors.New("loop does not enclose this block")
)
