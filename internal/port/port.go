// Package port defines the dispensing capability the engine drives.
//
// The engine never talks to hardware directly. Every physical action goes
// through a Dispenser, which addresses liquid by (slot, well). Implementations
// include the robot's HTTP API (see port/ot2) and Recorder, which records
// calls for dry runs and tests.
package port

import (
	"context"
	"time"

	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
)

// Pipette is an instrument to load, together with its tip rack.
type Pipette struct {
	planner.Instrument

	// TipRack is the slot of the rack that supplies this pipette's tips
	TipRack string

	// FlowRate is the aspirate and dispense rate in µL/s
	FlowRate float64
}

// Dispenser is the set of hardware operations a run needs.
type Dispenser interface {
	// LoadModule places a hardware module on the deck.
	LoadModule(ctx context.Context, m deck.ModulePlacement) error

	// LoadLabware places labware on the deck or on a loaded module.
	LoadLabware(ctx context.Context, l deck.LabwarePlacement) error

	// LoadPipette attaches a pipette and associates its tip rack.
	LoadPipette(ctx context.Context, p Pipette) error

	// PickUpTip fits the next unused tip onto the pipette.
	PickUpTip(ctx context.Context, pipette string) error

	// DropTip discards the pipette's tip.
	DropTip(ctx context.Context, pipette string) error

	// Aspirate draws volume from a location.
	Aspirate(ctx context.Context, pipette string, volume planner.Volume, loc deck.Location) error

	// Dispense expels volume into a location.
	Dispense(ctx context.Context, pipette string, volume planner.Volume, loc deck.Location) error

	// Mix aspirates and dispenses volume at a location repeatedly.
	Mix(ctx context.Context, pipette string, repetitions int, volume planner.Volume, loc deck.Location) error

	// SetTemperature sets a temperature module and waits until it is reached.
	SetTemperature(ctx context.Context, module string, celsius float64) error

	// Delay pauses the protocol.
	Delay(ctx context.Context, d time.Duration, message string) error
}

// TransferOptions controls Transfer.
type TransferOptions struct {
	// NewTip picks up a tip before and drops it after the transfer
	NewTip bool

	// MixRepetitions mixes in the destination after dispensing when > 0
	MixRepetitions int

	// MixVolume is the volume moved on each mix cycle
	MixVolume planner.Volume
}

// Transfer moves volume from src to dst with a single aspiration.
func Transfer(ctx context.Context, d Dispenser, pipette string, volume planner.Volume, src, dst deck.Location, opts TransferOptions) error {
	if opts.NewTip {
		if err := d.PickUpTip(ctx, pipette); err != nil {
			return err
		}
	}
	if err := d.Aspirate(ctx, pipette, volume, src); err != nil {
		return err
	}
	if err := d.Dispense(ctx, pipette, volume, dst); err != nil {
		return err
	}
	if opts.MixRepetitions > 0 {
		if err := d.Mix(ctx, pipette, opts.MixRepetitions, opts.MixVolume, dst); err != nil {
			return err
		}
	}
	if opts.NewTip {
		if err := d.DropTip(ctx, pipette); err != nil {
			return err
		}
	}
	return nil
}
