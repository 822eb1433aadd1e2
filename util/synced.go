package util

import "sync/atomic"

// SafeCounter is an int that can be shared between goroutines.
type SafeCounter struct {
	value atomic.Int32
}

// NewSafeCounter returns a counter starting at zero.
func NewSafeCounter() *SafeCounter {
	return &SafeCounter{}
}

// Increment adds one and returns the new value.
func (c *SafeCounter) Increment() int {
	return int(c.value.Add(1))
}

// Decrement subtracts one and returns the new value.
func (c *SafeCounter) Decrement() int {
	return int(c.value.Add(-1))
}

// Value returns the current value.
func (c *SafeCounter) Value() int {
	return int(c.value.Load())
}

// SafeFlag is a bool that can be shared between goroutines.
type SafeFlag struct {
	value atomic.Bool
}

// NewSafeFlag returns a cleared flag.
func NewSafeFlag() *SafeFlag {
	return &SafeFlag{}
}

// Set stores v and returns it.
func (f *SafeFlag) Set(v bool) bool {
	f.value.Store(v)
	return v
}

// Value returns the current value.
func (f *SafeFlag) Value() bool {
	return f.value.Load()
}

// TrySet sets the flag if it is clear and reports whether it did. Callers use
// it to claim a single slot of work and Set(false) to release it.
func (f *SafeFlag) TrySet() bool {
	return f.value.CompareAndSwap(false, true)
}
