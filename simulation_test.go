package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(agents int) *Config {
	cfg := defaultConfig()
	cfg.World.Width = 40
	cfg.World.Height = 40
	cfg.World.StartRegion = Rect{X: 2, Y: 2, W: 10, H: 10}
	cfg.World.TargetRegion = Rect{X: 28, Y: 28, W: 10, H: 10}
	cfg.World.Agents = agents
	cfg.World.Seed = 7
	return cfg
}

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestEngine_RunsToCompletion(t *testing.T) {
	cfg := testConfig(1)
	e := newTestEngine(t, cfg)

	outcomes, err := e.Start(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Empty(t, outcomes[0].Error)
	assert.Greater(t, outcomes[0].Waypoints, 1)
	assert.True(t, cfg.World.TargetRegion.Contains(outcomes[0].Target))
	assert.True(t, e.Running)

	dt := cfg.Motion.TickRate.Seconds()
	done := false
	for i := 0; i < 10000 && !done; i++ {
		done = e.Advance(dt)
	}
	require.True(t, done)
	assert.True(t, e.Completed)
	assert.False(t, e.Running)
	assert.Greater(t, e.CompletionTime, 0.0)
	assert.False(t, e.Advance(dt), "a finished run does not advance")
}

func TestEngine_SameSeedSameWorld(t *testing.T) {
	a := newTestEngine(t, testConfig(4))
	b := newTestEngine(t, testConfig(4))
	require.Len(t, a.World.Agents, 4)
	for i := range a.World.Agents {
		assert.Equal(t, a.World.Agents[i].Position, b.World.Agents[i].Position)
	}
}

func TestEngine_UnplannableAgentGetsEmptyPath(t *testing.T) {
	cfg := testConfig(0)
	cfg.World.Width, cfg.World.Height = 20, 20
	e := newTestEngine(t, cfg)

	require.NoError(t, e.World.AddObstacle(NewSegmentObstacle(Point{X: 5}, Point{X: 5, Y: 20})))
	stuck := NewAgent(0, Point{X: 1.5, Y: 1.5}, 1, 10)
	target := Point{X: 18.5, Y: 1.5}
	stuck.Target = &target
	require.NoError(t, e.World.AddAgent(stuck))

	outcomes, err := e.AssignPaths(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Contains(t, outcomes[0].Error, ErrNoPath.Error())
	assert.Equal(t, Idle, stuck.State())
	assert.Equal(t, target, *stuck.Target, "explicit targets are kept")
}

func TestEngine_AssignPathsCancelled(t *testing.T) {
	e := newTestEngine(t, testConfig(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.AssignPaths(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_SpeedMultiplier(t *testing.T) {
	cfg := testConfig(1)
	cfg.Motion.SpeedMultiplier = 2
	e := newTestEngine(t, cfg)

	assert.False(t, e.Advance(0.5), "not started")
	assert.Zero(t, e.SimTime)

	_, err := e.Start(context.Background())
	require.NoError(t, err)
	e.Advance(0.5)
	assert.InDelta(t, 1.0, e.SimTime, 1e-12)
}

func TestEngine_Reset(t *testing.T) {
	e := newTestEngine(t, testConfig(3))
	require.NoError(t, e.World.AddObstacle(NewRectObstacle(18, 18, 2, 2)))

	_, err := e.Start(context.Background())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		e.Advance(0.1)
	}

	require.NoError(t, e.Reset(false))
	assert.False(t, e.Running)
	assert.Zero(t, e.SimTime)
	assert.Len(t, e.World.Obstacles, 1)
	require.Len(t, e.World.Agents, 3)
	for _, a := range e.World.Agents {
		assert.Equal(t, Idle, a.State())
		assert.True(t, e.World.StartRegion.Contains(a.Position))
	}

	require.NoError(t, e.Reset(true))
	assert.Empty(t, e.World.Obstacles)
}

func TestEngine_ScenarioReset(t *testing.T) {
	cfg := testConfig(0)
	cfg.World.Scenario = writeFile(t, "two.yaml", `
obstacles:
  - rect: {x: 15, y: 15, w: 4, h: 4}
agents:
  - id: 0
    position: {x: 4, y: 4}
  - id: 1
    position: {x: 8, y: 4}
    target: {x: 30, y: 30}
`)
	e := newTestEngine(t, cfg)
	require.Len(t, e.World.Agents, 2)
	assert.Len(t, e.World.Obstacles, 1)

	_, err := e.Start(context.Background())
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		e.Advance(0.1)
	}

	require.NoError(t, e.Reset(false))
	require.Len(t, e.World.Agents, 2)
	assert.Equal(t, Point{X: 4, Y: 4}, e.World.Agents[0].Position)
	assert.Nil(t, e.World.Agents[0].Target, "scenario targets are restored")
	require.NotNil(t, e.World.Agents[1].Target)
	assert.Equal(t, Point{X: 30, Y: 30}, *e.World.Agents[1].Target)
}

func TestEngine_Scan(t *testing.T) {
	cfg := testConfig(2)
	e := newTestEngine(t, cfg)

	results, err := e.Scan(1)
	require.NoError(t, err)
	assert.Len(t, results, cfg.Sensor.Rays)

	_, err = e.Scan(9)
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestNewEngine_BadInputs(t *testing.T) {
	cfg := testConfig(1)
	cfg.World.ObstaclesGeoJSON = "missing.geojson"
	_, err := NewEngine(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(500)
	_, err = NewEngine(cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrPlacement)

	cfg = testConfig(1)
	cfg.World.Width, cfg.World.Height = 100, 10
	_, err = NewEngine(cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidResolution, "unusable grid is caught before any planning")
}

func TestEngine_ConcurrentPlanningMatchesSequential(t *testing.T) {
	plan := func(workers int) ([]PlanOutcome, []*Agent) {
		cfg := testConfig(8)
		cfg.Planner.Workers = workers
		e := newTestEngine(t, cfg)
		require.NoError(t, e.World.AddObstacle(NewRectObstacle(16, 16, 6, 6)))
		require.NoError(t, e.World.AddObstacle(NewSegmentObstacle(Point{X: 5, Y: 25}, Point{X: 25, Y: 5})))

		outcomes, err := e.AssignPaths(context.Background())
		require.NoError(t, err)
		return outcomes, e.World.Agents
	}

	seqOutcomes, seqAgents := plan(1)
	parOutcomes, parAgents := plan(8)

	assert.Equal(t, seqOutcomes, parOutcomes)
	require.Len(t, parAgents, len(seqAgents))
	for i := range seqAgents {
		assert.Equal(t, seqAgents[i].ID, parAgents[i].ID)
		assert.Equal(t, seqAgents[i].Path, parAgents[i].Path, "agent %d", seqAgents[i].ID)
	}
}

func TestEngine_LoadsSnapshot(t *testing.T) {
	e := newTestEngine(t, testConfig(3))
	require.NoError(t, e.World.AddObstacle(NewRectObstacle(18, 18, 2, 2)))
	_, err := e.Start(context.Background())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		e.Advance(0.1)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, SaveWorld(e.World, path))

	cfg := testConfig(0)
	cfg.World.Snapshot = path
	restored := newTestEngine(t, cfg)
	assert.Equal(t, e.World, restored.World)

	outcomes, err := restored.Start(context.Background())
	require.NoError(t, err)
	assert.Len(t, outcomes, 3)
	for i := 0; i < 5; i++ {
		restored.Advance(0.1)
	}

	require.NoError(t, restored.Reset(false))
	require.Len(t, restored.World.Agents, 3)
	for i, a := range restored.World.Agents {
		assert.Equal(t, e.World.Agents[i].Position, a.Position, "reset returns to the snapshot roster")
	}

	cfg = testConfig(0)
	cfg.World.Snapshot = writeFile(t, "strip.json", `{"bounds": {"x": 0, "y": 0, "w": 100, "h": 10}}`)
	_, err = NewEngine(cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidResolution)
}
