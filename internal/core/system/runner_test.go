package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (s recordSystem) Phase() Phase            { return s.phase }
func (s recordSystem) Update(_ time.Duration) { *s.log = append(*s.log, s.name) }

func TestRunner_PhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recordSystem{"cleanup", PhaseCleanup, &log})
	r.Register(recordSystem{"dispatch", PhasePreUpdate, &log})
	r.Register(recordSystem{"input-a", PhaseInput, &log})
	r.Register(recordSystem{"input-b", PhaseInput, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"input-a", "input-b", "dispatch", "cleanup"}, log)

	log = log[:0]
	r.TickPhase(PhaseCleanup, 0)
	assert.Equal(t, []string{"cleanup"}, log)
}
