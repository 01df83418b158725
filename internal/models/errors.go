package models

import "fmt"

// InputError marks a malformed FeatureSnapshot. It fails the gate for that
// ticker only and never aborts the cycle.
type InputError struct {
	Ticker string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error for %s: %s", e.Ticker, e.Reason)
}

// SizingError suppresses an entry for one ticker (insufficient equity or
// non-positive volatility). Logged, cycle continues.
type SizingError struct {
	Ticker string
	Reason string
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("sizing error for %s: %s", e.Ticker, e.Reason)
}

// StateError is a position update against unknown or inconsistent local
// state. It is surfaced to the caller and must not touch other positions.
type StateError struct {
	Ticker string
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error: %s %s: %s", e.Op, e.Ticker, e.Reason)
}
