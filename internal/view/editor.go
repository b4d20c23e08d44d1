package view

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an editor is asked to move to a state
// it cannot reach from where it is.
var ErrInvalidTransition = errors.New("invalid editor transition")

// EditorState is where an entity form currently is.
type EditorState int

const (
	Idle EditorState = iota
	Editing
	Submitting
)

func (s EditorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("EditorState(%d)", int(s))
}

// Editor drives one entity form:
//
//	Idle -> Editing(existing|new) -> Submitting -> Idle | Editing(error)
//
// Delete never leaves Idle and only proceeds once confirmed.
type Editor[T any] struct {
	state  EditorState
	target *T
	err    error
}

func (e *Editor[T]) State() EditorState { return e.state }

// Target is the record being edited, nil when creating a new one.
func (e *Editor[T]) Target() *T { return e.target }

// IsNew reports whether the form creates a record rather than editing one.
func (e *Editor[T]) IsNew() bool { return e.target == nil }

// Err is the failure that sent the editor back to Editing, if any.
func (e *Editor[T]) Err() error { return e.err }

// Open starts editing target, or a new record when target is nil.
func (e *Editor[T]) Open(target *T) error {
	if e.state != Idle {
		return e.invalid("open")
	}
	e.state, e.target, e.err = Editing, target, nil
	return nil
}

func (e *Editor[T]) Submit() error {
	if e.state != Editing {
		return e.invalid("submit")
	}
	e.state = Submitting
	return nil
}

func (e *Editor[T]) Succeed() error {
	if e.state != Submitting {
		return e.invalid("succeed")
	}
	e.state, e.target, e.err = Idle, nil, nil
	return nil
}

// Fail returns to Editing with the target kept so the form can be corrected.
func (e *Editor[T]) Fail(err error) error {
	if e.state != Submitting {
		return e.invalid("fail")
	}
	e.state, e.err = Editing, err
	return nil
}

// Cancel abandons the form from any state.
func (e *Editor[T]) Cancel() {
	e.state, e.target, e.err = Idle, nil, nil
}

// ConfirmDelete reports whether a delete may be issued. It is only legal
// while Idle and leaves the editor there.
func (e *Editor[T]) ConfirmDelete(confirmed bool) (bool, error) {
	if e.state != Idle {
		return false, e.invalid("delete")
	}
	return confirmed, nil
}

func (e *Editor[T]) invalid(action string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, e.state)
}
