package sched

// arena is a bump allocator over a caller-supplied buffer.
type arena struct {
	buf  []byte
	used int
}

func (a *arena) alloc(n int) []byte {
	if n <= 0 || a.used+n > len(a.buf) {
		return nil
	}
	p := a.buf[a.used : a.used+n : a.used+n]
	a.used += n
	return p
}

func (a *arena) release() {
	clear(a.buf)
	a.used = 0
}
