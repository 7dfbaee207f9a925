package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario step events.
const (
	StepConnect    = "connect"
	StepDisconnect = "disconnect"
	StepRespawn    = "respawn"
	StepCommand    = "command"
)

// Step is one host event replayed at a given tick.
type Step struct {
	Tick    int      `yaml:"tick"`
	Event   string   `yaml:"event"`
	Player  uint64   `yaml:"player"`
	Zone    string   `yaml:"zone"`    // respawn/command: target the player's marker with this label
	NetID   uint64   `yaml:"net_id"`  // respawn/command: explicit target, wins over zone
	Command string   `yaml:"command"` // command: console command name
	Args    []string `yaml:"args"`    // command: raw args; net id is appended when empty
	Reason  string   `yaml:"reason"`  // disconnect
}

// Scenario is a replayable sequence of host events.
type Scenario struct {
	Online []uint64 `yaml:"online"` // players connected before the world is ready
	Steps  []Step   `yaml:"steps"`
}

// LoadScenario loads a scenario.yaml file. Steps are ordered by tick; steps of
// the same tick keep file order.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, s := range sc.Steps {
		switch s.Event {
		case StepConnect, StepDisconnect, StepRespawn:
		case StepCommand:
			if s.Command == "" {
				return nil, fmt.Errorf("step #%d: command event without command", i)
			}
		default:
			return nil, fmt.Errorf("step #%d: unknown event %q", i, s.Event)
		}
		if s.Tick < 0 {
			return nil, fmt.Errorf("step #%d: negative tick", i)
		}
	}
	sort.SliceStable(sc.Steps, func(i, j int) bool {
		return sc.Steps[i].Tick < sc.Steps[j].Tick
	})
	return &sc, nil
}

// LastTick returns the tick of the final step.
func (s *Scenario) LastTick() int {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].Tick
}
