package sched

import "fmt"

// ChildFunc is the body of a child continuation. It returns 0 when the
// sub-computation is finished, or the number of ticks the parent should
// sleep before running it again.
type ChildFunc func(ch *Child) uint32

// Child is a resume point nested inside a parent body. Its markers are
// independent of the parent's, so the parent needs a single marker for
// the whole sub-computation. A Child belongs to the first task that awaits
// it and must live as long as that call site, typically in the task's
// state struct.
type Child struct {
	marker Marker
	owner  Handle
	bound  bool
}

// Enter returns the child's saved marker.
func (ch *Child) Enter() Marker { return ch.marker }

// Sleep saves next as the child's resume point and returns ms for the
// child body to return.
func (ch *Child) Sleep(next Marker, ms uint32) uint32 {
	ch.marker = next
	return ms
}

// Yield is Sleep for a single tick.
func (ch *Child) Yield(next Marker) uint32 {
	return ch.Sleep(next, 1)
}

// Reset rewinds the child and releases its owner.
func (ch *Child) Reset() {
	*ch = Child{}
}

func (ch *Child) bind(h Handle) {
	if !ch.bound {
		ch.owner = h
		ch.bound = true
		return
	}
	if ch.owner != h {
		panic(fmt.Sprintf("child continuation owned by task %d awaited by task %d", ch.owner, h))
	}
}

// Await runs fn once. When it asks for a delay the parent sleeps that long,
// its marker is set to here and Await returns true; the parent must return
// and, resumed at here, call Await again. When fn reports completion the
// child rewinds and Await returns false.
func (c *Ctx) Await(here Marker, ch *Child, fn ChildFunc) bool {
	ch.bind(c.h)
	d := fn(ch)
	if d == 0 {
		ch.marker = 0
		return false
	}
	return c.Sleep(here, d)
}
