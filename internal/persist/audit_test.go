package persist

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/compoundtp/internal/respawn"
)

var _ respawn.Recorder = (*AuditBuffer)(nil)

func TestAuditBuffer(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	b := NewAuditBuffer()
	b.now = func() time.Time { return at }

	b.RecordRespawn(7, &respawn.Handle{ID: 11, Label: "OUTPOST", Position: mgl64.Vec3{1, 2, 3}})
	b.RecordRemovalBlocked(7, 12)
	require.Equal(t, 2, b.Len())

	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, AuditEntry{
		Kind: AuditRespawn, PlayerID: 7, NetID: 11, Zone: "OUTPOST",
		Position: mgl64.Vec3{1, 2, 3}, At: at,
	}, got[0])
	assert.Equal(t, AuditRemovalBlocked, got[1].Kind)
	assert.Equal(t, respawn.NetID(12), got[1].NetID)

	assert.Zero(t, b.Len())
	assert.Nil(t, b.Drain())
}

func TestAuditBuffer_Requeue(t *testing.T) {
	b := NewAuditBuffer()
	b.RecordRemovalBlocked(1, 1)
	failed := b.Drain()
	b.RecordRemovalBlocked(1, 2)

	b.Requeue(failed)
	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, respawn.NetID(1), got[0].NetID, "requeued entries keep their place")
	assert.Equal(t, respawn.NetID(2), got[1].NetID)
}
