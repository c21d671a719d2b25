package seqio

// BufPolicy decides how the internal read buffer grows when a record does
// not fit into the current buffer. GrowTo takes the current capacity in
// bytes and returns the capacity to reallocate to. Returning ok=false
// refuses the growth; readers then fail with ErrBufferLimit.
type BufPolicy interface {
	GrowTo(current int) (next int, ok bool)
}

const (
	stdDoubleUntil = 1 << 25 // 32 MiB
	stdLimit       = 1 << 30 // 1 GiB
)

// StdPolicy is the default growth policy: the buffer doubles until it
// reaches 32 MiB, then grows in 32 MiB steps up to a limit of 1 GiB.
type StdPolicy struct{}

func (StdPolicy) GrowTo(current int) (int, bool) {
	next := growStep(current, stdDoubleUntil)
	if next > stdLimit {
		return 0, false
	}
	return next, true
}

// DoubleUntil doubles the buffer until it reaches the given size, then
// grows linearly in steps of that size. The buffer size is unlimited.
type DoubleUntil int

func (d DoubleUntil) GrowTo(current int) (int, bool) {
	return growStep(current, int(d)), true
}

// DoubleUntilLimited behaves like DoubleUntil, but refuses to grow the
// buffer beyond Limit bytes.
type DoubleUntilLimited struct {
	DoubleUntil int
	Limit       int
}

func (d DoubleUntilLimited) GrowTo(current int) (int, bool) {
	next := growStep(current, d.DoubleUntil)
	if next > d.Limit {
		return 0, false
	}
	return next, true
}

func growStep(current, doubleUntil int) int {
	if current < doubleUntil {
		return current * 2
	}
	return current + doubleUntil
}
