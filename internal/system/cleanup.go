package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/compoundtp/internal/core/ecs"
	coresys "github.com/l1jgo/compoundtp/internal/core/system"
)

// CleanupSystem destroys the marker entities queued during the tick and keeps
// a running total for the shutdown summary. Phase 4 (Cleanup).
type CleanupSystem struct {
	world     *ecs.World
	log       *zap.Logger
	destroyed int
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if s.world.Pending() == 0 {
		return
	}
	n := s.world.FlushDestroyQueue()
	s.destroyed += n
	s.log.Debug("markers destroyed", zap.Int("count", n), zap.Int("total", s.destroyed))
}

// Destroyed returns the number of entities destroyed so far.
func (s *CleanupSystem) Destroyed() int { return s.destroyed }
