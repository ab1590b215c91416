package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRatio indicates the insert target is not ratio × vector target.
	ErrInvalidRatio = errors.New("invalid concentration ratio")

	// ErrCapacityExceeded indicates a volume outside the delivering instrument's range.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrNegativeVolume indicates a component volume computed below zero.
	ErrNegativeVolume = errors.New("negative volume")

	// ErrInvalidInput indicates malformed operator input.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError describes a plan that must not be dispensed.
type ValidationError struct {
	// Component is the reagent or setting at fault
	Component string

	// Tube is the destination tube, if the failure is tube-specific
	Tube string

	// Volume is the offending volume, if any
	Volume Volume

	// Instrument is the delivering instrument, for capacity failures
	Instrument *Instrument

	// Detail is extra human-readable context
	Detail string

	// Err is one of the sentinel errors above
	Err error
}

func (e *ValidationError) Error() string {
	subject := e.Component
	if e.Tube != "" {
		subject = fmt.Sprintf("%s in %s", e.Component, e.Tube)
	}

	switch {
	case e.Instrument != nil:
		return fmt.Sprintf("%s: %s outside %s range %s-%s: %v",
			subject, e.Volume, e.Instrument.Name, e.Instrument.MinVolume, e.Instrument.MaxVolume, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s: %v", subject, e.Detail, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", subject, e.Volume, e.Err)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
