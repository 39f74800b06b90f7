package engine

import "errors"

// ErrLightGone is returned by Apply/Stop when the target Light is not (or
// is no longer) present in the Registry's current Snapshot.
var ErrLightGone = errors.New("engine: light not found")

// ErrPriorityTooLow is returned by Apply when a running task's priority is
// strictly higher than the requested effect's, per spec.md §4.4's
// replacement rule: the current task keeps running untouched.
var ErrPriorityTooLow = errors.New("engine: running task has strictly higher priority")

// ErrLEDOutOfRange is returned by Apply when the effect's LED index
// exceeds the target Light's LEDCount (spec.md §3/P11: an out-of-range
// index is a no-op, warned and left untouched, not forwarded to the
// transport). The currently running task, if any, is left running.
var ErrLEDOutOfRange = errors.New("engine: led index out of range")
