// Package preset reads and writes SCPI command presets as JSON documents.
//
// A preset is the external collaborator that feeds the core: it carries an
// ordered command list plus run parameters, and converts them into the
// scpi.Command and scpi.RunConfig value types the sequencer consumes. The
// core itself never touches preset files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/arloliu/go-scpi/scpi"
)

// Preset is one stored command sequence with its run parameters.
type Preset struct {
	// Name is an optional human-readable label.
	Name string `json:"name,omitempty"`

	// Commands is the ordered command list. Order is execution order.
	Commands []string `json:"commands"`

	// RepeatCount is the number of passes over the list. 0 means 1;
	// -1 requests an unbounded run.
	RepeatCount int `json:"repeatCount,omitempty"`

	// IntervalMillis is the wait between successive commands in
	// milliseconds.
	IntervalMillis int `json:"intervalMillis,omitempty"`
}

// Load reads a preset from the JSON file at path.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}

	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", path, err)
	}

	if len(p.Commands) == 0 {
		return nil, fmt.Errorf("preset %s: %w", path, scpi.ErrNoCommands)
	}

	return &p, nil
}

// Save writes the preset to the JSON file at path, creating or truncating it.
func (p *Preset) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}

	return nil
}

// CommandList converts the preset's command lines into scpi.Command values,
// preserving order and skipping blank lines.
func (p *Preset) CommandList() ([]scpi.Command, error) {
	return scpi.ParseCommands(p.Commands)
}

// RunConfig converts the preset's run parameters into a scpi.RunConfig.
// A zero RepeatCount maps to a single pass.
func (p *Preset) RunConfig() scpi.RunConfig {
	repeat := p.RepeatCount
	switch {
	case repeat == 0:
		repeat = 1
	case repeat < 0:
		repeat = scpi.RepeatForever
	}

	return scpi.RunConfig{
		RepeatCount: repeat,
		Interval:    time.Duration(p.IntervalMillis) * time.Millisecond,
	}
}
