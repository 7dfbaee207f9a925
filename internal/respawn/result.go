package respawn

// Result is the answer of a hook to the host.
type Result int

const (
	// NoOpinion defers to the host's default handling.
	NoOpinion Result = iota
	// Handled means the hook placed the player; default placement is skipped.
	Handled
	// Suppressed means the hook denied the command.
	Suppressed
)

func (r Result) String() string {
	switch r {
	case NoOpinion:
		return "no-opinion"
	case Handled:
		return "handled"
	case Suppressed:
		return "suppressed"
	}
	return "unknown"
}

// HookValue maps r onto the host's hook return convention: nil lets the default
// behaviour run, false stops it.
func (r Result) HookValue() any {
	if r == NoOpinion {
		return nil
	}
	return false
}
