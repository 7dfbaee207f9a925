// Package landmark resolves the world landmarks that anchor respawn zones.
package landmark

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/l1jgo/compoundtp/internal/zone"
)

// Landmark is a snapshot of a world monument taken at resolve time.
type Landmark struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Binding pairs an enabled zone with the landmark that satisfied its predicate.
type Binding struct {
	Zone     zone.Zone
	Landmark Landmark
}

// YawRotation returns the rotation of deg degrees around the up axis.
func YawRotation(deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), mgl64.Vec3{0, 1, 0})
}

// SpawnPoint returns the world position of the zone offset at index i.
func (b Binding) SpawnPoint(i int) mgl64.Vec3 {
	return b.Landmark.Position.Add(b.Landmark.Rotation.Rotate(b.Zone.Offsets[i]))
}

// Registry is the immutable result of Resolve. Bindings keep zone order.
type Registry struct {
	bindings []Binding
	byName   map[string]int
}

// Resolve binds each enabled zone to the first landmark, in scan order, that m
// accepts. Zones without a match are dropped. A zone whose name is already bound
// is skipped so at most one landmark exists per name.
func Resolve(landmarks []Landmark, zones []zone.Zone, m Matcher, log *zap.Logger) *Registry {
	r := &Registry{
		bindings: make([]Binding, 0, len(zones)),
		byName:   make(map[string]int, len(zones)),
	}
	for _, z := range zones {
		if !z.Enabled {
			continue
		}
		if _, dup := r.byName[z.Name]; dup {
			log.Warn("duplicate zone label, skipping", zap.String("zone", z.Name), zap.Stringer("kind", z.Kind))
			continue
		}
		if len(z.Offsets) == 0 {
			log.Warn("zone has no spawn offsets, skipping", zap.String("zone", z.Name))
			continue
		}
		found := false
		for _, lm := range landmarks {
			if !m.Match(z, lm.Name) {
				continue
			}
			lm.Rotation = lm.Rotation.Normalize()
			r.byName[z.Name] = len(r.bindings)
			r.bindings = append(r.bindings, Binding{Zone: z, Landmark: lm})
			log.Info("respawn zone bound",
				zap.String("zone", z.Name),
				zap.String("landmark", lm.Name),
				zap.Float64("x", lm.Position.X()),
				zap.Float64("y", lm.Position.Y()),
				zap.Float64("z", lm.Position.Z()))
			found = true
			break
		}
		if !found {
			log.Debug("no landmark for respawn zone", zap.String("zone", z.Name))
		}
	}
	return r
}

// Get returns the binding for a zone label.
func (r *Registry) Get(name string) (Binding, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Binding{}, false
	}
	return r.bindings[i], true
}

// Bindings returns the bindings in zone order.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)
	return out
}

// Count returns the number of resolved zones.
func (r *Registry) Count() int {
	return len(r.bindings)
}
