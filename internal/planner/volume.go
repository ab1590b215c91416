package planner

import (
	"fmt"
	"math"
)

// Volume is a liquid volume in nanolitres. Integer units keep per-tube sums exact.
type Volume int64

// Common volumes.
const (
	Nanoliter  Volume = 1
	Microliter Volume = 1000
)

// Microliters converts a µL quantity to the nearest nanolitre.
func Microliters(ul float64) Volume {
	return Volume(math.Round(ul * float64(Microliter)))
}

// Microliters returns the volume in µL.
func (v Volume) Microliters() float64 {
	return float64(v) / float64(Microliter)
}

// String formats the volume in µL with one decimal place.
func (v Volume) String() string {
	return fmt.Sprintf("%.1f µL", v.Microliters())
}

// RoundTo rounds raw µL to the nearest multiple of step.
func RoundTo(ul float64, step Volume) Volume {
	if step <= 0 {
		return Microliters(ul)
	}
	n := math.Round(ul * float64(Microliter) / float64(step))
	return Volume(n) * step
}
