package plugin

import (
	"strconv"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/compoundtp/internal/config"
	"github.com/l1jgo/compoundtp/internal/core/event"
	"github.com/l1jgo/compoundtp/internal/landmark"
	"github.com/l1jgo/compoundtp/internal/respawn"
	"github.com/l1jgo/compoundtp/internal/world"
)

func newTestWorld() *world.State {
	return world.NewState([]landmark.Landmark{
		{Name: config.OutpostPrefab, Position: mgl64.Vec3{100, 10, 100}, Rotation: landmark.YawRotation(0)},
		{Name: config.BanditPrefab, Position: mgl64.Vec3{-100, 5, -100}, Rotation: landmark.YawRotation(180)},
	})
}

func newTestPlugin(t *testing.T, cfg config.RespawnConfig) (*CompoundTeleport, *world.State, *event.Bus) {
	t.Helper()
	w := newTestWorld()
	bus := event.NewBus()
	p := New(cfg, w, landmark.NewExactMatcher(), zap.NewNop())
	p.Subscribe(bus, w)
	return p, w, bus
}

func tick(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}

func TestHooksBeforeInitAreIgnored(t *testing.T) {
	p, w, _ := newTestPlugin(t, config.Defaults().Respawn)
	p.OnPlayerConnected(1)
	p.OnPlayerDisconnected(1)
	assert.Equal(t, respawn.NoOpinion, p.OnPlayerRespawn(1, 1))
	assert.Equal(t, respawn.NoOpinion, p.OnServerCommand(RemoveCommand, []string{"1"}, 1, true))
	p.Unload()
	assert.Nil(t, p.Manager())
	assert.Zero(t, w.MarkerCount())
}

func TestServerInitialized_ConnectsOnlinePlayers(t *testing.T) {
	p, w, bus := newTestPlugin(t, config.Defaults().Respawn)
	w.AddPlayer(&world.PlayerInfo{ID: 1})
	w.AddPlayer(&world.PlayerInfo{ID: 2})

	event.Emit(bus, event.ServerInitialized{})
	tick(bus)

	require.NotNil(t, p.Manager())
	assert.Equal(t, 2, p.Registry().Count())
	assert.Len(t, w.RespawnOptions(1), 2)
	assert.Len(t, w.RespawnOptions(2), 2)
	assert.Equal(t, 4, w.MarkerCount())

	mgr := p.Manager()
	event.Emit(bus, event.ServerInitialized{})
	tick(bus)
	assert.Same(t, mgr, p.Manager(), "second init is ignored")
}

func TestConnectDisconnectViaBus(t *testing.T) {
	p, w, bus := newTestPlugin(t, config.Defaults().Respawn)
	event.Emit(bus, event.ServerInitialized{})
	tick(bus)

	event.Emit(bus, event.PlayerConnected{PlayerID: 5})
	tick(bus)
	assert.Len(t, w.RespawnOptions(5), 2)

	event.Emit(bus, event.PlayerDisconnected{PlayerID: 5, Reason: "quit"})
	event.Emit(bus, event.PlayerDisconnected{PlayerID: 5, Reason: "quit"})
	tick(bus)
	assert.Empty(t, w.RespawnOptions(5))
	assert.Equal(t, 2, p.Manager().PoolSize())
}

func TestOnPlayerRespawn(t *testing.T) {
	p, w, _ := newTestPlugin(t, config.Defaults().Respawn)
	w.AddPlayer(&world.PlayerInfo{ID: 1, Dead: true})
	p.OnServerInitialized(w.Landmarks(), w.ActivePlayers())

	id, ok := w.FindOption(1, "BANDIT TOWN")
	require.True(t, ok)
	require.Equal(t, respawn.Handled, p.OnPlayerRespawn(1, id))

	pos, ok := w.SpawnAtMarker(1, id)
	require.True(t, ok)
	assert.Less(t, pos.Sub(mgl64.Vec3{-100, 5, -100}).Len(), 40.0, "lands around the bandit camp")

	bed := w.PlaceBed(1, mgl64.Vec3{7, 0, 0}, 300)
	assert.Equal(t, respawn.NoOpinion, p.OnPlayerRespawn(1, bed), "player beds use default handling")
}

func TestOnServerCommand(t *testing.T) {
	p, w, _ := newTestPlugin(t, config.Defaults().Respawn)
	w.AddPlayer(&world.PlayerInfo{ID: 1})
	w.AddPlayer(&world.PlayerInfo{ID: 2})
	p.OnServerInitialized(w.Landmarks(), w.ActivePlayers())

	own, _ := w.FindOption(1, "OUTPOST")
	other, _ := w.FindOption(2, "OUTPOST")
	ownArg := strconv.FormatUint(uint64(own), 10)

	tests := []struct {
		name      string
		cmd       string
		args      []string
		player    respawn.PlayerID
		hasPlayer bool
		want      respawn.Result
	}{
		{"own marker", RemoveCommand, []string{ownArg}, 1, true, respawn.Suppressed},
		{"case-insensitive name", "Respawn_SleepingBag_Remove", []string{ownArg}, 1, true, respawn.Suppressed},
		{"other player's marker", RemoveCommand, []string{strconv.FormatUint(uint64(other), 10)}, 1, true, respawn.NoOpinion},
		{"no player", RemoveCommand, []string{ownArg}, 0, false, respawn.NoOpinion},
		{"other command", "respawn_sleepingbag", []string{ownArg}, 1, true, respawn.NoOpinion},
		{"zero id", RemoveCommand, []string{"0"}, 1, true, respawn.NoOpinion},
		{"bad id", RemoveCommand, []string{"abc"}, 1, true, respawn.NoOpinion},
		{"no args", RemoveCommand, nil, 1, true, respawn.NoOpinion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.OnServerCommand(tt.cmd, tt.args, tt.player, tt.hasPlayer))
		})
	}
}

func TestReload_Cooldown(t *testing.T) {
	p, w, _ := newTestPlugin(t, config.Defaults().Respawn)
	w.AddPlayer(&world.PlayerInfo{ID: 1})
	p.OnServerInitialized(w.Landmarks(), w.ActivePlayers())
	p.OnPlayerDisconnected(1)

	cfg := config.Defaults().Respawn
	cfg.CooldownSeconds = 300
	p.Reload(cfg)
	p.OnPlayerConnected(1)

	for _, h := range p.Manager().Assignment(1) {
		assert.Equal(t, 300, h.CooldownSeconds)
	}
}

func TestUnloadViaBus(t *testing.T) {
	p, w, bus := newTestPlugin(t, config.Defaults().Respawn)
	w.AddPlayer(&world.PlayerInfo{ID: 1})
	w.AddPlayer(&world.PlayerInfo{ID: 2})
	event.Emit(bus, event.ServerInitialized{})
	tick(bus)
	p.OnPlayerDisconnected(2)

	event.Emit(bus, event.Unload{})
	tick(bus)
	assert.Nil(t, p.Manager())
	assert.Zero(t, w.ActiveMarkerCount())

	w.Entities().FlushDestroyQueue()
	assert.Zero(t, w.MarkerCount(), "assigned and pooled markers are destroyed")
}
