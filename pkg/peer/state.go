package peer

// State is a peer's position in the LOGIN -> AUTH -> CONFIG -> ACTIVE
// handshake, or DEAD once it has timed out or been closed.
type State int

const (
	StateLogin State = iota
	StateAuth
	StateConfig
	StateActive
	StateDead
)

func (s State) String() string {
	switch s {
	case StateLogin:
		return "LOGIN"
	case StateAuth:
		return "AUTH"
	case StateConfig:
		return "CONFIG"
	case StateActive:
		return "ACTIVE"
	case StateDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// stateOrder gives AUTH/CONFIG/ACTIVE their position for forward-loose
// matching; LOGIN and DEAD are not part of this order.
var stateOrder = map[State]int{
	StateAuth:   0,
	StateConfig: 1,
	StateActive: 2,
}

// isApplicable reports whether a packet that requires "at least"
// requirement may be processed while the peer is in current.
//
// LOGIN and DEAD require an exact match: a peer can only ever receive an
// RPTL-class packet while in StateLogin, and nothing is "applicable" to
// a dead peer. AUTH, CONFIG, and ACTIVE use forward-loose matching: a
// peer at CONFIG or ACTIVE still accepts a packet that merely requires
// AUTH. This means an ACTIVE peer that resends RPTL is rejected outright
// (LOGIN is exact-match), rather than being reset back to LOGIN. This
// asymmetry is preserved as-is; it is not considered a bug.
func isApplicable(requirement, current State) bool {
	if requirement == StateLogin || requirement == StateDead {
		return current == requirement
	}
	reqOrder, reqOK := stateOrder[requirement]
	curOrder, curOK := stateOrder[current]
	if !reqOK || !curOK {
		return false
	}
	return curOrder >= reqOrder
}
