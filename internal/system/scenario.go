package system

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/compoundtp/internal/core/event"
	coresys "github.com/l1jgo/compoundtp/internal/core/system"
	"github.com/l1jgo/compoundtp/internal/data"
	"github.com/l1jgo/compoundtp/internal/respawn"
	"github.com/l1jgo/compoundtp/internal/world"
)

// Hooks are the synchronous plugin hooks the host calls and waits on.
type Hooks interface {
	OnPlayerRespawn(player respawn.PlayerID, id respawn.NetID) respawn.Result
	OnServerCommand(name string, args []string, player respawn.PlayerID, hasPlayer bool) respawn.Result
}

// ScenarioStats counts the outcomes of a replay.
type ScenarioStats struct {
	Connects        int
	Disconnects     int
	Respawns        int
	RespawnsHandled int
	Commands        int
	Suppressed      int
	Removed         int
	BedsRemoved     int
	Skipped         int
}

// ScenarioSystem plays host events from a scenario, one tick at a time: players
// connect and leave through the event bus, death-screen choices and console
// commands go straight to the plugin hooks. Phase 0 (Input).
type ScenarioSystem struct {
	sc    *data.Scenario
	world *world.State
	bus   *event.Bus
	hooks Hooks
	log   *zap.Logger

	tick  int
	next  int
	stats ScenarioStats
}

func NewScenarioSystem(sc *data.Scenario, ws *world.State, bus *event.Bus, hooks Hooks, log *zap.Logger) *ScenarioSystem {
	return &ScenarioSystem{sc: sc, world: ws, bus: bus, hooks: hooks, log: log}
}

func (s *ScenarioSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScenarioSystem) Update(_ time.Duration) {
	s.tick++
	for s.next < len(s.sc.Steps) && s.sc.Steps[s.next].Tick <= s.tick {
		s.apply(s.sc.Steps[s.next])
		s.next++
	}
}

// Done reports whether every step has been played.
func (s *ScenarioSystem) Done() bool { return s.next >= len(s.sc.Steps) }

// Stats returns the outcome counters so far.
func (s *ScenarioSystem) Stats() ScenarioStats { return s.stats }

// Connect adds the scenario's pre-connected players without going through the bus.
func (s *ScenarioSystem) Connect(ids []uint64) {
	for _, id := range ids {
		s.world.AddPlayer(&world.PlayerInfo{ID: respawn.PlayerID(id), ConnectedAt: time.Now()})
	}
}

func (s *ScenarioSystem) apply(st data.Step) {
	player := respawn.PlayerID(st.Player)
	switch st.Event {
	case data.StepConnect:
		if !s.world.AddPlayer(&world.PlayerInfo{ID: player, ConnectedAt: time.Now()}) {
			s.log.Debug("player already connected", zap.Uint64("player", st.Player))
		}
		s.stats.Connects++
		event.Emit(s.bus, event.PlayerConnected{PlayerID: st.Player})

	case data.StepDisconnect:
		s.world.RemovePlayer(player)
		s.stats.Disconnects++
		event.Emit(s.bus, event.PlayerDisconnected{PlayerID: st.Player, Reason: st.Reason})

	case data.StepRespawn:
		s.respawn(player, st)

	case data.StepCommand:
		s.command(player, st)
	}
}

// target resolves the marker a step points at: an explicit net id, or the
// player's listed marker with the step's zone label.
func (s *ScenarioSystem) target(player respawn.PlayerID, st data.Step) (respawn.NetID, bool) {
	if st.NetID != 0 {
		return respawn.NetID(st.NetID), true
	}
	return s.world.FindOption(player, st.Zone)
}

func (s *ScenarioSystem) respawn(player respawn.PlayerID, st data.Step) {
	p := s.world.GetPlayer(player)
	id, ok := s.target(player, st)
	if p == nil || !ok {
		s.stats.Skipped++
		s.log.Warn("respawn step skipped: no such player or marker",
			zap.Uint64("player", st.Player), zap.String("zone", st.Zone))
		return
	}
	p.Dead = true
	s.stats.Respawns++

	res := s.hooks.OnPlayerRespawn(player, id)
	if res == respawn.Handled {
		s.stats.RespawnsHandled++
	}
	pos, ok := s.world.SpawnAtMarker(player, id)
	if !ok {
		s.log.Warn("respawn marker not listed for player",
			zap.Uint64("player", st.Player), zap.Uint64("net_id", uint64(id)))
		return
	}
	s.log.Info("player respawned",
		zap.Uint64("player", st.Player),
		zap.Uint64("net_id", uint64(id)),
		zap.Stringer("hook", res),
		zap.Float64("x", pos.X()),
		zap.Float64("y", pos.Y()),
		zap.Float64("z", pos.Z()))
}

func (s *ScenarioSystem) command(player respawn.PlayerID, st data.Step) {
	args := st.Args
	var id respawn.NetID
	if len(args) == 0 {
		target, ok := s.target(player, st)
		if !ok {
			s.stats.Skipped++
			s.log.Warn("command step skipped: no target",
				zap.Uint64("player", st.Player), zap.String("command", st.Command))
			return
		}
		id = target
		args = []string{strconv.FormatUint(uint64(id), 10)}
	} else if v, err := strconv.ParseUint(args[0], 10, 64); err == nil {
		id = respawn.NetID(v)
	}
	s.stats.Commands++

	hasPlayer := s.world.GetPlayer(player) != nil
	res := s.hooks.OnServerCommand(st.Command, args, player, hasPlayer)
	if res != respawn.NoOpinion {
		s.stats.Suppressed++
		s.log.Info("command suppressed by plugin",
			zap.Uint64("player", st.Player), zap.String("command", st.Command), zap.Strings("args", args))
		return
	}

	// Default host behaviour for the bag removal command: delete the player's own bag.
	if hasPlayer && id != 0 {
		for _, h := range s.world.RespawnOptions(player) {
			if h.ID == id {
				bed := s.world.IsBed(id)
				s.world.DestroyMarker(id)
				s.stats.Removed++
				if bed {
					s.stats.BedsRemoved++
				}
				s.log.Info("respawn marker removed",
					zap.Uint64("player", st.Player), zap.Uint64("net_id", uint64(id)), zap.Bool("bed", bed))
				return
			}
		}
	}
}
