package config

import (
	"time"
)

// Protocol is the full description of a ligation run.
type Protocol struct {
	Metadata   Metadata          `yaml:"metadata" toml:"metadata" json:"metadata"`
	Reaction   Reaction          `yaml:"reaction" toml:"reaction" json:"reaction"`
	Pipettes   []Pipette         `yaml:"pipettes" toml:"pipettes" json:"pipettes"`
	Modules    []Module          `yaml:"modules" toml:"modules" json:"modules"`
	Labware    []Labware         `yaml:"labware" toml:"labware" json:"labware"`
	Reagents   map[string]Source `yaml:"reagents" toml:"reagents" json:"reagents"`
	Tubes      []Tube            `yaml:"tubes" toml:"tubes" json:"tubes"`
	Mix        Mix               `yaml:"mix" toml:"mix" json:"mix"`
	Incubation Incubation        `yaml:"incubation" toml:"incubation" json:"incubation"`
	Robot      Robot             `yaml:"robot" toml:"robot" json:"robot"`
}

// Metadata identifies the protocol.
type Metadata struct {
	ProtocolName string `yaml:"protocol_name" toml:"protocol_name" json:"protocol_name"`
	Author       string `yaml:"author,omitempty" toml:"author,omitempty" json:"author,omitempty"`
	Description  string `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	RobotType    string `yaml:"robot_type" toml:"robot_type" json:"robot_type"`
	APILevel     string `yaml:"api_level" toml:"api_level" json:"api_level"`
}

// Reaction holds the per-tube arithmetic inputs. Volumes are µL and
// concentrations ng/µL.
type Reaction struct {
	FinalVolume  float64 `yaml:"final_volume" toml:"final_volume" json:"final_volume"`
	VectorTarget float64 `yaml:"vector_target" toml:"vector_target" json:"vector_target"`
	InsertTarget float64 `yaml:"insert_target" toml:"insert_target" json:"insert_target"`
	Ratio        float64 `yaml:"ratio" toml:"ratio" json:"ratio"`
	BufferVolume float64 `yaml:"buffer_volume" toml:"buffer_volume" json:"buffer_volume"`
	LigaseVolume float64 `yaml:"ligase_volume" toml:"ligase_volume" json:"ligase_volume"`
}

// Pipette is an instrument on a mount with its tip rack.
type Pipette struct {
	Name       string  `yaml:"name" toml:"name" json:"name"`
	Model      string  `yaml:"model" toml:"model" json:"model"`
	Mount      string  `yaml:"mount" toml:"mount" json:"mount"`
	MinVolume  float64 `yaml:"min_volume" toml:"min_volume" json:"min_volume"`
	MaxVolume  float64 `yaml:"max_volume" toml:"max_volume" json:"max_volume"`
	Resolution float64 `yaml:"resolution" toml:"resolution" json:"resolution"`
	TipRack    string  `yaml:"tip_rack" toml:"tip_rack" json:"tip_rack"`
	FlowRate   float64 `yaml:"flow_rate" toml:"flow_rate" json:"flow_rate"`
}

// Module is a hardware module in a slot.
type Module struct {
	Name  string `yaml:"name" toml:"name" json:"name"`
	Model string `yaml:"model" toml:"model" json:"model"`
	Slot  string `yaml:"slot" toml:"slot" json:"slot"`
}

// Labware is labware in a slot, optionally on a module.
type Labware struct {
	Name     string `yaml:"name" toml:"name" json:"name"`
	LoadName string `yaml:"load_name" toml:"load_name" json:"load_name"`
	Slot     string `yaml:"slot" toml:"slot" json:"slot"`
	Module   string `yaml:"module,omitempty" toml:"module,omitempty" json:"module,omitempty"`
}

// Source is where a reagent is drawn from.
type Source struct {
	Slot  string  `yaml:"slot" toml:"slot" json:"slot"`
	Well  string  `yaml:"well" toml:"well" json:"well"`
	Depth float64 `yaml:"depth" toml:"depth" json:"depth"`

	// Pipette pins the delivering instrument; empty picks by volume
	Pipette string `yaml:"pipette,omitempty" toml:"pipette,omitempty" json:"pipette,omitempty"`
}

// Tube is a reaction destination.
type Tube struct {
	Name   string  `yaml:"name" toml:"name" json:"name"`
	Slot   string  `yaml:"slot" toml:"slot" json:"slot"`
	Well   string  `yaml:"well" toml:"well" json:"well"`
	Depth  float64 `yaml:"depth" toml:"depth" json:"depth"`
	Insert bool    `yaml:"insert" toml:"insert" json:"insert"`
	Ligase bool    `yaml:"ligase" toml:"ligase" json:"ligase"`
}

// Mix is the up-and-down mix after ligase is added.
type Mix struct {
	Repetitions int     `yaml:"repetitions" toml:"repetitions" json:"repetitions"`
	Volume      float64 `yaml:"volume" toml:"volume" json:"volume"`
}

// Incubation is the temperature program around the pipetting steps.
type Incubation struct {
	// Module names the temperature module carrying the reaction tubes
	Module string `yaml:"module" toml:"module" json:"module"`

	// AssemblyCelsius holds the block while reagents are added
	AssemblyCelsius float64 `yaml:"assembly_celsius" toml:"assembly_celsius" json:"assembly_celsius"`

	// Celsius and Minutes are the ligation incubation
	Celsius float64 `yaml:"celsius" toml:"celsius" json:"celsius"`
	Minutes float64 `yaml:"minutes" toml:"minutes" json:"minutes"`

	// HoldCelsius chills the product before transformation
	HoldCelsius float64 `yaml:"hold_celsius" toml:"hold_celsius" json:"hold_celsius"`
}

// Duration returns the incubation time.
func (i Incubation) Duration() time.Duration {
	return time.Duration(i.Minutes * float64(time.Minute))
}

// Robot is how to reach the robot server.
type Robot struct {
	Address string `yaml:"address" toml:"address" json:"address"`

	// PollMillis is how often unfinished commands are polled
	PollMillis int `yaml:"poll_millis" toml:"poll_millis" json:"poll_millis"`

	// TimeoutSeconds bounds how long the robot holds each command request
	TimeoutSeconds int `yaml:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds"`
}

// PollInterval returns the command poll interval.
func (r Robot) PollInterval() time.Duration {
	return time.Duration(r.PollMillis) * time.Millisecond
}

// Timeout returns the per-command wait timeout.
func (r Robot) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// defaultDepth is how far below the top of a 1.5 mL tube liquid is handled.
const defaultDepth = 35.0

// Default returns the standard ligation protocol: temperature module with an
// aluminium block in slot 1 holding the three reaction tubes, chilled buffer
// and ligase in slot 3, DNA and water in slot 5, p20 tips in 8 and p300 tips
// in 9.
func Default() *Protocol {
	return &Protocol{
		Metadata: Metadata{
			ProtocolName: "Plasmid Ligation",
			Description: "Combines insert and vector DNA at a 3:1 ratio in a 20 µL reaction " +
				"alongside vector+ligase and vector-only controls, incubates at room " +
				"temperature and chills at 4 °C before transformation.",
			RobotType: "OT-2",
			APILevel:  "2.19",
		},
		Reaction: Reaction{
			FinalVolume:  20,
			VectorTarget: 5,
			InsertTarget: 15,
			Ratio:        3,
			BufferVolume: 2,
			LigaseVolume: 1,
		},
		Pipettes: []Pipette{
			{Name: "p300", Model: "p300_single_gen2", Mount: "left", MinVolume: 20, MaxVolume: 300, Resolution: 1, TipRack: "9", FlowRate: 92.86},
			{Name: "p20", Model: "p20_single_gen2", Mount: "right", MinVolume: 1, MaxVolume: 20, Resolution: 0.1, TipRack: "8", FlowRate: 7.56},
		},
		Modules: []Module{
			{Name: "temperature", Model: "temperatureModuleV2", Slot: "1"},
		},
		Labware: []Labware{
			{Name: "reaction_block", LoadName: "opentrons_24_aluminumblock_nest_1.5ml_snapcap", Slot: "1", Module: "temperature"},
			{Name: "chilled_rack", LoadName: "opentrons_24_tuberack_nest_1.5ml_snapcap", Slot: "3"},
			{Name: "tube_rack", LoadName: "opentrons_24_tuberack_nest_1.5ml_snapcap", Slot: "5"},
			{Name: "p20_tips", LoadName: "opentrons_96_tiprack_20ul", Slot: "8"},
			{Name: "p300_tips", LoadName: "opentrons_96_tiprack_300ul", Slot: "9"},
		},
		Reagents: map[string]Source{
			"vector": {Slot: "5", Well: "B1", Depth: defaultDepth, Pipette: "p20"},
			"insert": {Slot: "5", Well: "B2", Depth: defaultDepth, Pipette: "p20"},
			"water":  {Slot: "5", Well: "B3", Depth: defaultDepth},
			"buffer": {Slot: "3", Well: "D1", Depth: defaultDepth, Pipette: "p20"},
			"ligase": {Slot: "3", Well: "C1", Depth: defaultDepth, Pipette: "p20"},
		},
		Tubes: []Tube{
			{Name: "ligation", Slot: "1", Well: "A1", Depth: defaultDepth, Insert: true, Ligase: true},
			{Name: "vector_ligase", Slot: "1", Well: "A2", Depth: defaultDepth, Ligase: true},
			{Name: "vector_only", Slot: "1", Well: "A3", Depth: defaultDepth},
		},
		Mix: Mix{Repetitions: 3, Volume: 10},
		Incubation: Incubation{
			Module:          "temperature",
			AssemblyCelsius: 4,
			Celsius:         25,
			Minutes:         30,
			HoldCelsius:     4,
		},
		Robot: Robot{
			Address:        "localhost",
			PollMillis:     500,
			TimeoutSeconds: 30,
		},
	}
}
