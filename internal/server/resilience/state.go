package resilience

// State is the lifecycle state of the datastore connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

// AllStates lists every State in declaration order.
var AllStates = []State{Disconnected, Connecting, Connected, Failed}

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
