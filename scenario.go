package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentSpawn is one entry of a scenario roster. Zero radius or speed take
// the configured defaults.
type AgentSpawn struct {
	ID       int     `yaml:"id"`
	Position Point   `yaml:"position"`
	Radius   float64 `yaml:"radius"`
	Speed    float64 `yaml:"speed"`
	Target   *Point  `yaml:"target"`
}

// Scenario is a hand-authored world layout
type Scenario struct {
	Obstacles []Obstacle   `yaml:"obstacles"`
	Agents    []AgentSpawn `yaml:"agents"`
}

// LoadScenario loads obstacles and an agent roster from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, obs := range s.Obstacles {
		if err := obs.Validate(); err != nil {
			return nil, fmt.Errorf("scenario obstacle %d: %w", i, err)
		}
	}
	return &s, nil
}

// Apply adds the scenario obstacles to w and replaces its agents
func (s *Scenario) Apply(w *World, defaults AgentConfig) error {
	for _, obs := range s.Obstacles {
		if err := w.AddObstacle(obs); err != nil {
			return err
		}
	}
	roster, err := s.Roster(defaults)
	if err != nil {
		return err
	}
	w.Agents = roster
	return nil
}

// Roster builds the scenario agents sorted by id
func (s *Scenario) Roster(defaults AgentConfig) ([]*Agent, error) {
	w := &World{Agents: make([]*Agent, 0, len(s.Agents))}
	for _, spawn := range s.Agents {
		radius, speed := spawn.Radius, spawn.Speed
		if radius == 0 {
			radius = defaults.Radius
		}
		if speed == 0 {
			speed = defaults.Speed
		}
		a := NewAgent(spawn.ID, spawn.Position, radius, speed)
		if spawn.Target != nil {
			target := *spawn.Target
			a.Target = &target
		}
		if err := w.AddAgent(a); err != nil {
			return nil, fmt.Errorf("scenario agent: %w", err)
		}
	}
	return w.Agents, nil
}
