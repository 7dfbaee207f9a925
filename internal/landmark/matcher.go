package landmark

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/l1jgo/compoundtp/internal/config"
	"github.com/l1jgo/compoundtp/internal/zone"
)

// Matcher decides whether a world landmark anchors a zone.
type Matcher interface {
	Match(z zone.Zone, landmarkName string) bool
}

// ScriptMatcher is the scripting bridge used by match_mode = "script". kind is
// the zone kind ("outpost", "bandit"), which stays stable when labels are renamed.
type ScriptMatcher interface {
	MatchLandmark(kind, name string) bool
}

// ExactMatcher matches when the case-folded landmark name equals the zone pattern.
type ExactMatcher struct {
	fold cases.Caser
}

func NewExactMatcher() *ExactMatcher {
	return &ExactMatcher{fold: cases.Fold()}
}

func (m *ExactMatcher) Match(z zone.Zone, name string) bool {
	return m.fold.String(name) == m.fold.String(z.Landmark)
}

// ContainsMatcher matches when the case-folded landmark name contains the zone pattern.
type ContainsMatcher struct {
	fold cases.Caser
}

func NewContainsMatcher() *ContainsMatcher {
	return &ContainsMatcher{fold: cases.Fold()}
}

func (m *ContainsMatcher) Match(z zone.Zone, name string) bool {
	if z.Landmark == "" {
		return false
	}
	return strings.Contains(m.fold.String(name), m.fold.String(z.Landmark))
}

type scriptMatcher struct {
	s ScriptMatcher
}

func (m scriptMatcher) Match(z zone.Zone, name string) bool {
	return m.s.MatchLandmark(z.Kind.String(), name)
}

// NewMatcher returns the predicate for a config match mode. script may be nil
// unless mode is config.MatchScript.
func NewMatcher(mode string, script ScriptMatcher) (Matcher, error) {
	switch mode {
	case config.MatchExact, "":
		return NewExactMatcher(), nil
	case config.MatchContains:
		return NewContainsMatcher(), nil
	case config.MatchScript:
		if script == nil {
			return nil, fmt.Errorf("match mode %q needs a scripting engine", mode)
		}
		return scriptMatcher{s: script}, nil
	}
	return nil, fmt.Errorf("unknown match mode %q", mode)
}
