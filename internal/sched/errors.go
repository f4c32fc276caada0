package sched

import "errors"

var (
	// ErrInvalidCapacity is returned by Init for a capacity outside 1..MaxCapacity.
	ErrInvalidCapacity = errors.New("sched: invalid capacity")
	// ErrNoTickSource is returned by Init without a tick function.
	ErrNoTickSource = errors.New("sched: missing tick source")
	// ErrAlreadyInitialized is returned by Init on a live scheduler.
	ErrAlreadyInitialized = errors.New("sched: already initialized")
	// ErrNotInitialized is returned by operations on a scheduler without a registry.
	ErrNotInitialized = errors.New("sched: not initialized")
	// ErrCapacityExceeded is returned by CreateTask when every slot is taken.
	ErrCapacityExceeded = errors.New("sched: capacity exceeded")
	// ErrNilTask is returned by CreateTask for a nil entry function.
	ErrNilTask = errors.New("sched: nil task function")
	// ErrReentrantStep is returned when Step is called from inside a task body.
	ErrReentrantStep = errors.New("sched: step called from a running task")
)
