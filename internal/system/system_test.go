package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/compoundtp/internal/config"
	"github.com/l1jgo/compoundtp/internal/core/event"
	coresys "github.com/l1jgo/compoundtp/internal/core/system"
	"github.com/l1jgo/compoundtp/internal/data"
	"github.com/l1jgo/compoundtp/internal/landmark"
	"github.com/l1jgo/compoundtp/internal/persist"
	"github.com/l1jgo/compoundtp/internal/plugin"
	"github.com/l1jgo/compoundtp/internal/world"
)

type harness struct {
	world   *world.State
	bus     *event.Bus
	plugin  *plugin.CompoundTeleport
	runner  *coresys.Runner
	replay  *ScenarioSystem
	cleanup *CleanupSystem
}

func newHarness(t *testing.T, sc *data.Scenario) *harness {
	t.Helper()
	w := world.NewState([]landmark.Landmark{
		{Name: config.OutpostPrefab, Position: mgl64.Vec3{100, 0, 100}, Rotation: mgl64.QuatIdent()},
		{Name: config.BanditPrefab, Position: mgl64.Vec3{-100, 0, -100}, Rotation: mgl64.QuatIdent()},
	})
	bus := event.NewBus()
	p := plugin.New(config.Defaults().Respawn, w, landmark.NewExactMatcher(), zap.NewNop())
	p.Subscribe(bus, w)

	h := &harness{world: w, bus: bus, plugin: p, runner: coresys.NewRunner()}
	h.replay = NewScenarioSystem(sc, w, bus, p, zap.NewNop())
	h.replay.Connect(sc.Online)
	h.cleanup = NewCleanupSystem(w.Entities(), zap.NewNop())
	h.runner.Register(h.cleanup)
	h.runner.Register(h.replay)
	h.runner.Register(NewEventDispatchSystem(bus))

	event.Emit(bus, event.ServerInitialized{})
	return h
}

func (h *harness) run(ticks int) {
	for i := 0; i < ticks; i++ {
		h.runner.Tick(200 * time.Millisecond)
	}
}

func TestScenario_ConnectRespawnDisconnect(t *testing.T) {
	sc := &data.Scenario{
		Online: []uint64{1},
		Steps: []data.Step{
			{Tick: 1, Event: data.StepConnect, Player: 2},
			{Tick: 2, Event: data.StepRespawn, Player: 2, Zone: "BANDIT TOWN"},
			{Tick: 3, Event: data.StepDisconnect, Player: 2, Reason: "quit"},
		},
	}
	h := newHarness(t, sc)

	h.run(1)
	require.NotNil(t, h.plugin.Manager(), "world ready dispatched on first tick")
	assert.Len(t, h.world.RespawnOptions(1), 2)
	assert.Len(t, h.world.RespawnOptions(2), 2)

	h.run(1)
	p := h.world.GetPlayer(2)
	require.NotNil(t, p)
	assert.False(t, p.Dead)
	assert.Less(t, p.Position.Sub(mgl64.Vec3{-100, 0, -100}).Len(), 40.0)

	h.run(1)
	assert.Empty(t, h.world.RespawnOptions(2))
	assert.Equal(t, 2, h.plugin.Manager().PoolSize())
	assert.True(t, h.replay.Done())

	st := h.replay.Stats()
	assert.Equal(t, 1, st.Connects)
	assert.Equal(t, 1, st.Respawns)
	assert.Equal(t, 1, st.RespawnsHandled)
	assert.Equal(t, 1, st.Disconnects)
}

func TestScenario_RemoveCommand(t *testing.T) {
	sc := &data.Scenario{
		Online: []uint64{1},
		Steps: []data.Step{
			{Tick: 2, Event: data.StepCommand, Player: 1, Zone: "OUTPOST", Command: plugin.RemoveCommand},
		},
	}
	h := newHarness(t, sc)
	h.run(1)

	bed := h.world.PlaceBed(1, mgl64.Vec3{5, 0, 0}, 300)
	h.replay.apply(data.Step{Event: data.StepCommand, Player: 1, NetID: uint64(bed), Command: plugin.RemoveCommand})
	h.run(1)

	st := h.replay.Stats()
	assert.Equal(t, 2, st.Commands)
	assert.Equal(t, 1, st.Suppressed, "plugin marker is protected")
	assert.Equal(t, 1, st.Removed, "own bed falls through to host removal")
	assert.Equal(t, 1, st.BedsRemoved)
	assert.Equal(t, 1, h.cleanup.Destroyed())
	assert.False(t, h.world.IsBed(bed), "bed entity is gone after cleanup")
	_, ok := h.world.FindOption(1, "OUTPOST")
	assert.True(t, ok)
	assert.Len(t, h.world.RespawnOptions(1), 2)
}

func TestScenario_SkipsUnknownTarget(t *testing.T) {
	sc := &data.Scenario{
		Steps: []data.Step{
			{Tick: 1, Event: data.StepRespawn, Player: 9, Zone: "OUTPOST"},
			{Tick: 1, Event: data.StepCommand, Player: 9, Zone: "NOWHERE", Command: plugin.RemoveCommand},
		},
	}
	h := newHarness(t, sc)
	h.run(1)
	assert.Equal(t, 2, h.replay.Stats().Skipped)
}

type fakeWriter struct {
	calls int
	fail  bool
	got   []persist.AuditEntry
}

func (w *fakeWriter) WriteAudit(_ context.Context, entries []persist.AuditEntry) error {
	w.calls++
	if w.fail {
		return errors.New("db down")
	}
	w.got = append(w.got, entries...)
	return nil
}

func TestAuditFlushSystem_Interval(t *testing.T) {
	buf := persist.NewAuditBuffer()
	w := &fakeWriter{}
	s := NewAuditFlushSystem(buf, w, time.Second, zap.NewNop())
	assert.Equal(t, coresys.PhasePersist, s.Phase())

	buf.RecordRemovalBlocked(1, 2)
	for i := 0; i < 4; i++ {
		s.Update(200 * time.Millisecond)
	}
	assert.Zero(t, w.calls)
	s.Update(200 * time.Millisecond)
	assert.Equal(t, 1, w.calls)
	assert.Len(t, w.got, 1)
	assert.Zero(t, buf.Len())

	s.Update(time.Second)
	assert.Equal(t, 1, w.calls, "empty buffer is not written")
}

func TestAuditFlushSystem_RequeueOnError(t *testing.T) {
	buf := persist.NewAuditBuffer()
	w := &fakeWriter{fail: true}
	s := NewAuditFlushSystem(buf, w, time.Second, zap.NewNop())

	buf.RecordRemovalBlocked(1, 2)
	s.Flush()
	assert.Equal(t, 1, buf.Len())

	w.fail = false
	s.Flush()
	assert.Zero(t, buf.Len())
	assert.Len(t, w.got, 1)
}
