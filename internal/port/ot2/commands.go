package ot2

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danieljhkim/ligate/internal/deck"
	"github.com/danieljhkim/ligate/internal/planner"
	"github.com/danieljhkim/ligate/internal/port"
)

var _ port.Dispenser = (*Client)(nil)

// LoadModule loads a hardware module into its slot.
func (c *Client) LoadModule(ctx context.Context, m deck.ModulePlacement) error {
	var res loadModuleResult
	params := loadModuleParams{Model: m.Model, Location: slotLocation{SlotName: m.Slot}}
	if err := c.execute(ctx, "loadModule", params, &res); err != nil {
		return err
	}
	c.modules[m.Name] = res.ModuleID
	return nil
}

// LoadLabware loads labware into a slot or onto its module.
func (c *Client) LoadLabware(ctx context.Context, l deck.LabwarePlacement) error {
	def, err := deck.Lookup(l.LoadName)
	if err != nil {
		return err
	}

	loc := slotLocation{SlotName: l.Slot}
	if l.Module != "" {
		id, ok := c.modules[l.Module]
		if !ok {
			return fmt.Errorf("labware %s: module %s: %w", l.Name, l.Module, ErrNotLoaded)
		}
		loc = slotLocation{ModuleID: id}
	}

	var res loadLabwareResult
	params := loadLabwareParams{
		LoadName:    l.LoadName,
		Namespace:   "opentrons",
		Version:     1,
		Location:    loc,
		DisplayName: l.Name,
	}
	if err := c.execute(ctx, "loadLabware", params, &res); err != nil {
		return err
	}
	c.labware[l.Slot] = loadedLabware{id: res.LabwareID, def: def}
	return nil
}

// LoadPipette loads a pipette on its mount and binds the tip rack in p.TipRack.
func (c *Client) LoadPipette(ctx context.Context, p port.Pipette) error {
	rack, ok := c.labware[p.TipRack]
	if !ok {
		return fmt.Errorf("pipette %s: tip rack in slot %s: %w", p.Name, p.TipRack, ErrNotLoaded)
	}
	if rack.def.Kind != deck.KindTipRack {
		return fmt.Errorf("pipette %s: slot %s does not hold a tip rack", p.Name, p.TipRack)
	}

	var res loadPipetteResult
	params := loadPipetteParams{PipetteName: p.Model, Mount: p.Mount}
	if err := c.execute(ctx, "loadPipette", params, &res); err != nil {
		return err
	}
	c.pipettes[p.Name] = &loadedPipette{
		id:       res.PipetteID,
		flowRate: p.FlowRate,
		tips:     deck.NewTipRack(p.TipRack, rack.def),
		tipRack:  rack.id,
	}
	return nil
}

func (c *Client) pipette(name string) (*loadedPipette, error) {
	p, ok := c.pipettes[name]
	if !ok {
		return nil, fmt.Errorf("pipette %s: %w", name, ErrNotLoaded)
	}
	return p, nil
}

// PickUpTip takes the next tip from the pipette's rack.
func (c *Client) PickUpTip(ctx context.Context, pipette string) error {
	p, err := c.pipette(pipette)
	if err != nil {
		return err
	}
	tip, err := p.tips.Next()
	if err != nil {
		return err
	}
	c.logger.Debug("picking up tip", zap.String("pipette", pipette), zap.String("tip", tip.String()))
	return c.execute(ctx, "pickUpTip", tipParams{PipetteID: p.id, LabwareID: p.tipRack, WellName: tip.Well}, nil)
}

// DropTip drops the tip into the fixed trash.
func (c *Client) DropTip(ctx context.Context, pipette string) error {
	p, err := c.pipette(pipette)
	if err != nil {
		return err
	}
	return c.execute(ctx, "dropTip", tipParams{PipetteID: p.id, LabwareID: fixedTrash, WellName: "A1"}, nil)
}

func (c *Client) liquid(pipette string, volume planner.Volume, loc deck.Location) (liquidParams, error) {
	p, err := c.pipette(pipette)
	if err != nil {
		return liquidParams{}, err
	}
	lw, ok := c.labware[loc.Slot]
	if !ok {
		return liquidParams{}, fmt.Errorf("labware in slot %s: %w", loc.Slot, ErrNotLoaded)
	}
	return liquidParams{
		PipetteID:    p.id,
		LabwareID:    lw.id,
		WellName:     loc.Well,
		WellLocation: wellLocation{Origin: "top", Offset: offset{Z: -loc.Depth}},
		Volume:       volume.Microliters(),
		FlowRate:     p.flowRate,
	}, nil
}

// Aspirate draws volume from loc.
func (c *Client) Aspirate(ctx context.Context, pipette string, volume planner.Volume, loc deck.Location) error {
	params, err := c.liquid(pipette, volume, loc)
	if err != nil {
		return err
	}
	return c.execute(ctx, "aspirate", params, nil)
}

// Dispense expels volume into loc.
func (c *Client) Dispense(ctx context.Context, pipette string, volume planner.Volume, loc deck.Location) error {
	params, err := c.liquid(pipette, volume, loc)
	if err != nil {
		return err
	}
	return c.execute(ctx, "dispense", params, nil)
}

// Mix has no single robot command; it is a run of aspirate/dispense pairs.
func (c *Client) Mix(ctx context.Context, pipette string, repetitions int, volume planner.Volume, loc deck.Location) error {
	for i := 0; i < repetitions; i++ {
		if err := c.Aspirate(ctx, pipette, volume, loc); err != nil {
			return fmt.Errorf("mix %d/%d: %w", i+1, repetitions, err)
		}
		if err := c.Dispense(ctx, pipette, volume, loc); err != nil {
			return fmt.Errorf("mix %d/%d: %w", i+1, repetitions, err)
		}
	}
	return nil
}

// SetTemperature sets the module target and blocks until it is reached.
func (c *Client) SetTemperature(ctx context.Context, module string, celsius float64) error {
	id, ok := c.modules[module]
	if !ok {
		return fmt.Errorf("module %s: %w", module, ErrNotLoaded)
	}
	if err := c.execute(ctx, "temperatureModule/setTargetTemperature", temperatureParams{ModuleID: id, Celsius: &celsius}, nil); err != nil {
		return err
	}
	return c.execute(ctx, "temperatureModule/waitForTemperature", temperatureParams{ModuleID: id}, nil)
}

// Delay pauses the run on the robot.
func (c *Client) Delay(ctx context.Context, d time.Duration, message string) error {
	return c.execute(ctx, "waitForDuration", waitParams{Seconds: d.Seconds(), Message: message}, nil)
}
