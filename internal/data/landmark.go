package data

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/compoundtp/internal/landmark"
)

// LandmarkEntry is one monument of a world dump.
type LandmarkEntry struct {
	Name     string    `yaml:"name"`
	X        float64   `yaml:"x"`
	Y        float64   `yaml:"y"`
	Z        float64   `yaml:"z"`
	Yaw      float64   `yaml:"yaw"`      // degrees around Y; ignored when rotation is set
	Rotation []float64 `yaml:"rotation"` // optional quaternion x, y, z, w
}

type landmarkFile struct {
	Landmarks []LandmarkEntry `yaml:"landmarks"`
}

// LandmarkTable holds the monuments of the world in map scan order.
type LandmarkTable struct {
	entries []LandmarkEntry
}

// LoadLandmarkTable loads a landmarks.yaml world dump.
func LoadLandmarkTable(path string) (*LandmarkTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read landmark list: %w", err)
	}
	var file landmarkFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse landmark list: %w", err)
	}
	for i, e := range file.Landmarks {
		if e.Name == "" {
			return nil, fmt.Errorf("landmark #%d: missing name", i)
		}
		if len(e.Rotation) != 0 && len(e.Rotation) != 4 {
			return nil, fmt.Errorf("landmark %s: rotation needs 4 components, got %d", e.Name, len(e.Rotation))
		}
	}
	return &LandmarkTable{entries: file.Landmarks}, nil
}

// Landmarks converts the dump into landmark snapshots, preserving order.
func (t *LandmarkTable) Landmarks() []landmark.Landmark {
	out := make([]landmark.Landmark, 0, len(t.entries))
	for _, e := range t.entries {
		rot := landmark.YawRotation(e.Yaw)
		if len(e.Rotation) == 4 {
			rot = mgl64.Quat{W: e.Rotation[3], V: mgl64.Vec3{e.Rotation[0], e.Rotation[1], e.Rotation[2]}}.Normalize()
		}
		out = append(out, landmark.Landmark{
			Name:     e.Name,
			Position: mgl64.Vec3{e.X, e.Y, e.Z},
			Rotation: rot,
		})
	}
	return out
}

// Count returns the number of landmarks loaded.
func (t *LandmarkTable) Count() int {
	return len(t.entries)
}
