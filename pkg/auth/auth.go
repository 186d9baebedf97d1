// Package auth defines the peer authentication policy used by the
// handshake controller to decide which repeater IDs may log in and
// what password, if any, they must present.
package auth

// Policy decides whether a peer ID may connect, and what password it
// must present to do so.
type Policy interface {
	// AllowPeerID reports whether peerID is permitted to attempt login
	// at all, before any password is checked.
	AllowPeerID(peerID uint32) bool

	// CheckPassword reports whether password is correct for peerID. An
	// empty registered password means any password presented by the
	// peer is accepted.
	CheckPassword(peerID uint32, password string) bool
}

// PasswordSource is implemented by a Policy that can hand back a peer's
// registered plaintext password, so the handshake controller can
// recompute RPTK's sha256(salt||password) challenge response. Policies
// that decide purely from the presented hash (there are none built in)
// need not implement this; ones that don't are treated as accepting
// whatever hash the peer presents once AllowPeerID/CheckPassword agree.
type PasswordSource interface {
	Password(peerID uint32) (password string, ok bool)
}

// AllowAllPolicy permits any peer ID and accepts any password.
type AllowAllPolicy struct{}

func (AllowAllPolicy) AllowPeerID(uint32) bool            { return true }
func (AllowAllPolicy) CheckPassword(uint32, string) bool  { return true }

// DenyAllPolicy rejects every peer ID. It is the default policy: a
// master with no configured allow-list accepts no one.
type DenyAllPolicy struct{}

func (DenyAllPolicy) AllowPeerID(uint32) bool           { return false }
func (DenyAllPolicy) CheckPassword(uint32, string) bool { return false }
