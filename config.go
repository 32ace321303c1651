package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	World   WorldConfig   `toml:"world"`
	Grid    GridConfig    `toml:"grid"`
	Agent   AgentConfig   `toml:"agent"`
	Motion  MotionConfig  `toml:"motion"`
	Sensor  SensorConfig  `toml:"sensor"`
	Planner PlannerConfig `toml:"planner"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type WorldConfig struct {
	Width             float64 `toml:"width"`
	Height            float64 `toml:"height"`
	StartRegion       Rect    `toml:"start_region"`
	TargetRegion      Rect    `toml:"target_region"`
	Agents            int     `toml:"agents"`             // agents spawned in the start region
	Seed              int64   `toml:"seed"`               // 0 = seed from the clock
	PlacementAttempts int     `toml:"placement_attempts"` // total spawn samples before giving up
	Scenario          string  `toml:"scenario"`           // optional YAML scenario, replaces spawning
	ObstaclesGeoJSON  string  `toml:"obstacles_geojson"`  // optional GeoJSON obstacle file
	SimplifyEpsilon   float64 `toml:"simplify_epsilon"`   // Douglas-Peucker tolerance for GeoJSON chains, 0 = off
	Snapshot          string  `toml:"snapshot"`           // optional JSON world snapshot, replaces everything above
}

type GridConfig struct {
	BaseGrid float64 `toml:"base_grid"` // largest free cell
	MinGrid  float64 `toml:"min_grid"`  // smallest cell of any kind
}

type AgentConfig struct {
	Radius float64 `toml:"radius"`
	Speed  float64 `toml:"speed"` // world units per second
}

type MotionConfig struct {
	MaxStep          float64       `toml:"max_step"`
	ArrivalTolerance float64       `toml:"arrival_tolerance"`
	TickRate         time.Duration `toml:"tick_rate"`
	SpeedMultiplier  float64       `toml:"speed_multiplier"`
}

type SensorConfig struct {
	MaxRange float64 `toml:"max_range"`
	Rays     int     `toml:"rays"`
}

type PlannerConfig struct {
	Workers int `toml:"workers"` // concurrent planning requests in AssignPaths
}

type ServerConfig struct {
	BindAddress string `toml:"bind_address"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			Width:             128,
			Height:            128,
			StartRegion:       Rect{X: 10, Y: 10, W: 20, H: 20},
			TargetRegion:      Rect{X: 90, Y: 90, W: 20, H: 20},
			Agents:            5,
			PlacementAttempts: 1000,
		},
		Grid: GridConfig{
			BaseGrid: 5,
			MinGrid:  1,
		},
		Agent: AgentConfig{
			Radius: 1,
			Speed:  10,
		},
		Motion: MotionConfig{
			MaxStep:          2,
			ArrivalTolerance: 0.2,
			TickRate:         time.Second / 60,
			SpeedMultiplier:  1,
		},
		Sensor: SensorConfig{
			MaxRange: 20,
			Rays:     16,
		},
		Planner: PlannerConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			BindAddress: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) Validate() error {
	switch {
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("world size %.3fx%.3f must be positive", c.World.Width, c.World.Height)
	case c.World.Agents < 0:
		return fmt.Errorf("agent count %d must not be negative", c.World.Agents)
	case c.World.PlacementAttempts <= 0:
		return fmt.Errorf("placement attempts %d must be positive", c.World.PlacementAttempts)
	case c.Agent.Radius <= 0:
		return fmt.Errorf("agent radius %.3f must be positive", c.Agent.Radius)
	case c.Motion.MaxStep <= 0 || c.Motion.ArrivalTolerance <= 0:
		return fmt.Errorf("max step %.3f and arrival tolerance %.3f must be positive", c.Motion.MaxStep, c.Motion.ArrivalTolerance)
	case c.Motion.TickRate <= 0:
		return fmt.Errorf("tick rate %s must be positive", c.Motion.TickRate)
	case c.Sensor.MaxRange <= 0 || c.Sensor.Rays <= 0:
		return fmt.Errorf("sensor range %.3f and rays %d must be positive", c.Sensor.MaxRange, c.Sensor.Rays)
	case c.Planner.Workers <= 0:
		return fmt.Errorf("planner workers %d must be positive", c.Planner.Workers)
	}
	if c.World.Snapshot != "" && c.World.Scenario != "" {
		return fmt.Errorf("snapshot %q and scenario %q are mutually exclusive", c.World.Snapshot, c.World.Scenario)
	}
	d, err := NewDiscretizer(c.Grid.BaseGrid, c.Grid.MinGrid)
	if err != nil {
		return err
	}
	return d.checkBounds(Rect{W: c.World.Width, H: c.World.Height})
}

// NewLogger builds the process logger from the logging section
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("logging level %q: %w", cfg.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
