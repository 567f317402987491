package cfg

import (
	"fmt"
	"reflect"

	"tlog.app/go/errors"
)

// ErrInvalidLoopTarget signals a jump referencing a loop absent from the
// active loop map. Builder-time checks (model.ErrLoopNotEnclosing,
// model.ErrNoEnclosingLoop) should make this impossible; seeing it means
// the structured input was built or mutated outside the builder API.
var ErrInvalidLoopTarget = errors.New("invalid loop target")

// UnknownConstructError is a defensive error: an Item of a variant this
// package does not recognise reached the lowering switch. It can only
// happen if model.Item is implemented outside package model, which the
// sealed interface is meant to prevent.
type UnknownConstructError struct {
	Item any
}

func (e UnknownConstructError) Error() string {
	return fmt.Sprintf("unknown construct: %v", reflect.TypeOf(e.Item))
}
