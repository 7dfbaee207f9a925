package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/compoundtp/internal/core/system"
	"github.com/l1jgo/compoundtp/internal/persist"
)

// AuditWriter persists a batch of audit entries.
type AuditWriter interface {
	WriteAudit(ctx context.Context, entries []persist.AuditEntry) error
}

// AuditFlushSystem writes buffered audit entries every flush interval.
// A failed write puts the batch back for the next attempt. Phase 3 (Persist).
type AuditFlushSystem struct {
	buf      *persist.AuditBuffer
	writer   AuditWriter
	interval time.Duration
	elapsed  time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewAuditFlushSystem(buf *persist.AuditBuffer, writer AuditWriter, interval time.Duration, log *zap.Logger) *AuditFlushSystem {
	return &AuditFlushSystem{
		buf:      buf,
		writer:   writer,
		interval: interval,
		timeout:  5 * time.Second,
		log:      log,
	}
}

func (s *AuditFlushSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AuditFlushSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Flush()
}

// Flush writes everything buffered so far. Called directly at shutdown.
func (s *AuditFlushSystem) Flush() {
	entries := s.buf.Drain()
	if len(entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.writer.WriteAudit(ctx, entries); err != nil {
		s.buf.Requeue(entries)
		s.log.Warn("audit flush failed", zap.Int("entries", len(entries)), zap.Error(err))
		return
	}
	s.log.Debug("audit flushed", zap.Int("entries", len(entries)))
}
