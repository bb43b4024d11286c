package component

// State is the lifecycle state of an attached unit
type State int

const (
	// StateUninitialized units are attached but their node has not started yet
	StateUninitialized State = iota
	// StateInitialized units have completed OnInit
	StateInitialized
	// StateStarted units tick and receive events
	StateStarted
	// StateStopped units keep their state but neither tick nor receive events
	StateStopped
	// StateFailed units returned an error from OnInit
	StateFailed
	// StateDestroyed units have run OnDestroy and their handles are stale
	StateDestroyed
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
