package statemachine

import (
	"testing"
)

type counter struct {
	n int
}

func stateEven(c *counter) StateFn[counter] {
	c.n++
	if c.n >= 3 {
		return nil
	}
	return stateOdd
}

func stateOdd(c *counter) StateFn[counter] {
	c.n++
	return stateEven
}

func TestDispatchFollowsReturnedState(t *testing.T) {
	c := &counter{}
	m := New(c, stateEven)

	m.Dispatch(m.Current())
	if c.n != 1 {
		t.Fatalf("expected 1 step, got %d", c.n)
	}

	m.Dispatch(m.Current())
	m.Dispatch(m.Current())
	if c.n != 3 {
		t.Fatalf("expected 3 steps, got %d", c.n)
	}

	// Third step returned nil; the machine is now terminal and further
	// dispatches are no-ops.
	if m.Current() != nil {
		t.Fatal("expected terminal state")
	}
	m.Dispatch(m.Current())
	if c.n != 3 {
		t.Fatalf("terminal dispatch must not run states, got %d", c.n)
	}
}

func TestSetDoesNotRun(t *testing.T) {
	c := &counter{}
	m := New(c, stateEven)
	m.Set(stateOdd)
	if c.n != 0 {
		t.Fatalf("Set must not execute the state, got %d steps", c.n)
	}
}
