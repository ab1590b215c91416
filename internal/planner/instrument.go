package planner

// Instrument is a pipette with a fixed working range.
type Instrument struct {
	// Name is the short name used throughout a plan, e.g. "p20"
	Name string `json:"name"`

	// Model is the vendor model, e.g. "p20_single_gen2"
	Model string `json:"model"`

	// Mount is "left" or "right"
	Mount string `json:"mount"`

	// MinVolume and MaxVolume bound a single aspiration
	MinVolume Volume `json:"min_volume"`
	MaxVolume Volume `json:"max_volume"`

	// Resolution is the smallest volume step the instrument delivers
	Resolution Volume `json:"resolution"`
}

// Contains reports whether v is inside the instrument's working range.
func (i Instrument) Contains(v Volume) bool {
	return v >= i.MinVolume && v <= i.MaxVolume
}

// Round rounds raw µL to the instrument's resolution.
func (i Instrument) Round(ul float64) Volume {
	return RoundTo(ul, i.Resolution)
}

// findInstrument returns the instrument with the given name.
func findInstrument(instruments []Instrument, name string) (Instrument, bool) {
	for _, inst := range instruments {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instrument{}, false
}

// smallestFor returns the instrument with the smallest maximum whose range contains v.
func smallestFor(instruments []Instrument, v Volume) (Instrument, bool) {
	var best Instrument
	found := false
	for _, inst := range instruments {
		if !inst.Contains(v) {
			continue
		}
		if !found || inst.MaxVolume < best.MaxVolume {
			best = inst
			found = true
		}
	}
	return best, found
}

// finest returns the instrument with the smallest resolution, used to round
// volumes before an instrument has been chosen.
func finest(instruments []Instrument) Instrument {
	best := instruments[0]
	for _, inst := range instruments[1:] {
		if inst.Resolution < best.Resolution {
			best = inst
		}
	}
	return best
}
