package peer

import "fmt"

// ErrDuplicateAddr means a new peer login arrived from an address
// already bound to a different peer ID.
type ErrDuplicateAddr struct{ Addr string }

func (e *ErrDuplicateAddr) Error() string {
	return fmt.Sprintf("address %s already registered to a different peer", e.Addr)
}

// ErrDuplicateID means a peer ID is already bound to a different
// address.
type ErrDuplicateID struct{ ID uint32 }

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("peer id %d already registered from a different address", e.ID)
}

// ErrNotApplicable means a packet arrived that the peer's current
// handshake state does not accept.
type ErrNotApplicable struct {
	PeerID   uint32
	Required State
	Current  State
}

func (e *ErrNotApplicable) Error() string {
	return fmt.Sprintf("peer %d: packet requires state >= %s, peer is %s", e.PeerID, e.Required, e.Current)
}

// ErrAuthFailed means a peer's RPTK password hash did not match.
type ErrAuthFailed struct{ PeerID uint32 }

func (e *ErrAuthFailed) Error() string {
	return fmt.Sprintf("peer %d: authentication failed", e.PeerID)
}

// ErrPeerNotAllowed means the configured auth policy rejected a peer ID
// outright, before any password check.
type ErrPeerNotAllowed struct{ PeerID uint32 }

func (e *ErrPeerNotAllowed) Error() string {
	return fmt.Sprintf("peer %d: not permitted by auth policy", e.PeerID)
}

// ErrRegistryFull means the registry already holds MaxPeers peers and
// cannot admit a new (never-before-seen) peer ID.
type ErrRegistryFull struct{ Max int }

func (e *ErrRegistryFull) Error() string {
	return fmt.Sprintf("registry full: max_peers %d reached", e.Max)
}
