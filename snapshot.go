package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// SaveWorld serializes the world, agents and their paths included, to a
// JSON file
func SaveWorld(w *World, filename string) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal world: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadWorld deserializes a world saved by SaveWorld
func LoadWorld(filename string) (*World, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var w World
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal world: %w", err)
	}

	for i, obs := range w.Obstacles {
		if err := obs.Validate(); err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
	}
	sort.Slice(w.Agents, func(i, j int) bool { return w.Agents[i].ID < w.Agents[j].ID })
	for i := 1; i < len(w.Agents); i++ {
		if w.Agents[i].ID == w.Agents[i-1].ID {
			return nil, fmt.Errorf("duplicate agent id %d", w.Agents[i].ID)
		}
	}
	return &w, nil
}
