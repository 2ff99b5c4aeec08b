// Package core wraps raw device objects in lifecycle aware resource
// types. Wrappers are only handed out by a Context, carry their
// creation time geometry for good, and stay safe to use after release,
// every operation on a released resource fails at the driver boundary
// instead of touching freed memory.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// package errors
var (
	ErrNoDevice        = errors.New("core: context needs a device")
	ErrContextReleased = errors.New("core: context already released")
)

// GCMode selects what happens to a resource the garbage collector
// finds unreachable before it was released.
type GCMode int

// Garbage collection modes
const (
	// GCManual leaves leaked device objects alone. They stay
	// allocated until the context itself is released.
	GCManual GCMode = iota

	// GCAuto releases the device object as soon as the wrapper is
	// collected. The release runs on the finalizer goroutine, so the
	// device has to tolerate off thread frees.
	GCAuto

	// GCContext parks the raw handle on the owning context. Nothing
	// is freed until CollectGarbage is called.
	GCContext
)

func (m GCMode) String() string {
	switch m {
	case GCManual:
		return "manual"
	case GCAuto:
		return "auto"
	case GCContext:
		return "context"
	default:
		return "unknown"
	}
}

// ParseGCMode reads a garbage collection mode from its string form.
func ParseGCMode(s string) (GCMode, error) {
	switch strings.ToLower(s) {
	case "manual", "":
		return GCManual, nil
	case "auto":
		return GCAuto, nil
	case "context", "context_gc":
		return GCContext, nil
	default:
		return GCManual, fmt.Errorf("core: unknown gc mode %q", s)
	}
}

// Releasable defines any device-memory-occupying item that can be freed.
type Releasable interface {

	// Release releases device memory held by the implementing
	// structure. Safe to call more than once.
	Release()
}

// Resource describes a device resource that can be uniquely identified.
type Resource interface {
	Releasable

	// ID returns the numeric name of the underlying device object,
	// zero once released.
	ID() uint32

	// Released reports whether the device object is gone.
	Released() bool
}
