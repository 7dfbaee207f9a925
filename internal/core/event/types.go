package event

// Host lifecycle events consumed by the teleport plugin.

// ServerInitialized fires once the world and its monuments are loaded.
type ServerInitialized struct{}

type PlayerConnected struct {
	PlayerID uint64
}

type PlayerDisconnected struct {
	PlayerID uint64
	Reason   string
}

// Unload fires before the plugin is removed from the process.
type Unload struct{}
