package dispatch

// State is a stage of one dispatch
type State int

const (
	StateReceived State = iota
	StateParsed
	StateAuthenticated
	StateRouted
	StateHandled
	StateResponded
	StateFailed
)

var stateNames = [...]string{
	StateReceived:      "received",
	StateParsed:        "parsed",
	StateAuthenticated: "authenticated",
	StateRouted:        "routed",
	StateHandled:       "handled",
	StateResponded:     "responded",
	StateFailed:        "failed",
}

// String returns the state name
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateResponded || s == StateFailed
}
