package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/l1jgo/compoundtp/internal/respawn"
)

// Audit entry kinds.
const (
	AuditRespawn        = "respawn"
	AuditRemovalBlocked = "removal_blocked"
)

// AuditEntry is one teleport respawn or one denied marker removal.
type AuditEntry struct {
	Kind     string
	PlayerID respawn.PlayerID
	NetID    respawn.NetID
	Zone     string
	Position mgl64.Vec3
	At       time.Time
}

// AuditBuffer collects audit entries on the game loop until the persist phase
// drains them. It implements respawn.Recorder.
type AuditBuffer struct {
	pending []AuditEntry
	now     func() time.Time
}

func NewAuditBuffer() *AuditBuffer {
	return &AuditBuffer{
		pending: make([]AuditEntry, 0, 64),
		now:     time.Now,
	}
}

func (b *AuditBuffer) RecordRespawn(player respawn.PlayerID, h *respawn.Handle) {
	b.pending = append(b.pending, AuditEntry{
		Kind:     AuditRespawn,
		PlayerID: player,
		NetID:    h.ID,
		Zone:     h.Label,
		Position: h.Position,
		At:       b.now(),
	})
}

func (b *AuditBuffer) RecordRemovalBlocked(player respawn.PlayerID, id respawn.NetID) {
	b.pending = append(b.pending, AuditEntry{
		Kind:     AuditRemovalBlocked,
		PlayerID: player,
		NetID:    id,
		At:       b.now(),
	})
}

// Len returns the number of entries waiting to be written.
func (b *AuditBuffer) Len() int { return len(b.pending) }

// Drain returns the pending entries and empties the buffer.
func (b *AuditBuffer) Drain() []AuditEntry {
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = make([]AuditEntry, 0, cap(out))
	return out
}

// Requeue puts entries back in front of anything recorded since they were drained.
func (b *AuditBuffer) Requeue(entries []AuditEntry) {
	b.pending = append(entries, b.pending...)
}

// AuditRepo writes audit entries, tagged with the id of this server run.
type AuditRepo struct {
	db    *DB
	runID uuid.UUID
}

func NewAuditRepo(db *DB, runID uuid.UUID) *AuditRepo {
	return &AuditRepo{db: db, runID: runID}
}

// WriteAudit inserts a batch of entries in a single transaction.
func (r *AuditRepo) WriteAudit(ctx context.Context, entries []AuditEntry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("audit begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO respawn_audit (run_id, kind, player_id, net_id, zone, pos_x, pos_y, pos_z, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.runID, e.Kind, int64(e.PlayerID), int64(e.NetID), e.Zone,
			e.Position.X(), e.Position.Y(), e.Position.Z(), e.At,
		); err != nil {
			return fmt.Errorf("audit insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
