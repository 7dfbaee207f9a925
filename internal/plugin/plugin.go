// Package plugin binds the respawn core to host hooks: the death-screen
// teleport to the trade outpost and bandit town.
package plugin

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/l1jgo/compoundtp/internal/config"
	"github.com/l1jgo/compoundtp/internal/core/event"
	"github.com/l1jgo/compoundtp/internal/landmark"
	"github.com/l1jgo/compoundtp/internal/respawn"
	"github.com/l1jgo/compoundtp/internal/zone"
)

// RemoveCommand is the console command the respawn UI sends to delete a bag.
const RemoveCommand = "respawn_sleepingbag_remove"

// Server is what the plugin reads from the host at world-ready time.
type Server interface {
	Landmarks() []landmark.Landmark
	ActivePlayers() []respawn.PlayerID
}

// CompoundTeleport is the hook table. Hooks fired before OnServerInitialized,
// or after Unload, are ignored.
type CompoundTeleport struct {
	cfg      config.RespawnConfig
	host     respawn.Host
	matcher  landmark.Matcher
	recorder respawn.Recorder
	log      *zap.Logger

	registry *landmark.Registry
	manager  *respawn.Manager
}

func New(cfg config.RespawnConfig, host respawn.Host, matcher landmark.Matcher, log *zap.Logger) *CompoundTeleport {
	return &CompoundTeleport{
		cfg:     cfg,
		host:    host,
		matcher: matcher,
		log:     log,
	}
}

// SetRecorder installs an audit recorder. Must be called before OnServerInitialized.
func (p *CompoundTeleport) SetRecorder(r respawn.Recorder) { p.recorder = r }

// Manager returns the respawn manager, or nil before the world is ready.
func (p *CompoundTeleport) Manager() *respawn.Manager { return p.manager }

// Registry returns the resolved zones, or nil before the world is ready.
func (p *CompoundTeleport) Registry() *landmark.Registry { return p.registry }

// OnServerInitialized resolves the zone landmarks and gives markers to players
// that are already online.
func (p *CompoundTeleport) OnServerInitialized(landmarks []landmark.Landmark, online []respawn.PlayerID) {
	if p.manager != nil {
		p.log.Warn("server already initialized, ignoring")
		return
	}
	p.registry = landmark.Resolve(landmarks, zone.FromConfig(p.cfg), p.matcher, p.log)
	p.manager = respawn.NewManager(p.registry, p.host, p.cfg.CooldownSeconds, p.log)
	if p.recorder != nil {
		p.manager.SetRecorder(p.recorder)
	}
	p.manager.ConnectAll(online)

	p.log.Info("compound teleport ready",
		zap.Int("zones", p.registry.Count()),
		zap.Int("landmarks", len(landmarks)),
		zap.Int("online", len(online)))
}

func (p *CompoundTeleport) OnPlayerConnected(player respawn.PlayerID) {
	if p.manager == nil {
		return
	}
	p.manager.PlayerConnected(player)
}

func (p *CompoundTeleport) OnPlayerDisconnected(player respawn.PlayerID) {
	if p.manager == nil {
		return
	}
	p.manager.PlayerDisconnected(player)
}

// OnPlayerRespawn runs when player picks marker id on the death screen.
func (p *CompoundTeleport) OnPlayerRespawn(player respawn.PlayerID, id respawn.NetID) respawn.Result {
	if p.manager == nil {
		return respawn.NoOpinion
	}
	return p.manager.RespawnRequested(player, id)
}

// OnServerCommand guards the plugin's markers against the bag removal command.
// hasPlayer is false when the command did not come from a connected player.
func (p *CompoundTeleport) OnServerCommand(name string, args []string, player respawn.PlayerID, hasPlayer bool) respawn.Result {
	if p.manager == nil || !strings.EqualFold(name, RemoveCommand) {
		return respawn.NoOpinion
	}
	if len(args) == 0 {
		return respawn.NoOpinion
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return respawn.NoOpinion
	}
	if !hasPlayer {
		return respawn.NoOpinion
	}
	return p.manager.RemovalRequested(player, respawn.NetID(id))
}

// Reload applies settings that can change while the world is running. Zone
// labels, toggles and landmarks are fixed until the next load.
func (p *CompoundTeleport) Reload(cfg config.RespawnConfig) {
	zonesChanged := cfg.OutpostEnabled != p.cfg.OutpostEnabled ||
		cfg.BanditEnabled != p.cfg.BanditEnabled ||
		cfg.OutpostLabel != p.cfg.OutpostLabel ||
		cfg.BanditLabel != p.cfg.BanditLabel ||
		cfg.OutpostLandmark != p.cfg.OutpostLandmark ||
		cfg.BanditLandmark != p.cfg.BanditLandmark ||
		cfg.MatchMode != p.cfg.MatchMode
	if zonesChanged && p.manager != nil {
		p.log.Warn("zone settings changed, they apply on next load")
	}
	p.cfg.CooldownSeconds = cfg.CooldownSeconds
	if p.manager != nil {
		p.manager.SetCooldown(cfg.CooldownSeconds)
	}
}

// Unload destroys every marker. The plugin is inert afterwards.
func (p *CompoundTeleport) Unload() {
	if p.manager == nil {
		return
	}
	p.manager.Teardown()
	p.manager = nil
	p.log.Info("compound teleport unloaded")
}

// Subscribe registers the lifecycle hooks on the host event bus.
func (p *CompoundTeleport) Subscribe(bus *event.Bus, srv Server) {
	event.Subscribe(bus, func(event.ServerInitialized) {
		p.OnServerInitialized(srv.Landmarks(), srv.ActivePlayers())
	})
	event.Subscribe(bus, func(e event.PlayerConnected) {
		p.OnPlayerConnected(respawn.PlayerID(e.PlayerID))
	})
	event.Subscribe(bus, func(e event.PlayerDisconnected) {
		p.OnPlayerDisconnected(respawn.PlayerID(e.PlayerID))
	})
	event.Subscribe(bus, func(event.Unload) {
		p.Unload()
	})
}
