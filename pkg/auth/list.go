package auth

import "sync"

// ListPolicy permits exactly the peer IDs in its allow-list. A peer
// registered with an empty password is accepted with any password
// presented; a peer registered with a non-empty password must match it
// exactly.
type ListPolicy struct {
	mu    sync.RWMutex
	allow map[uint32]string
}

// NewListPolicy returns a ListPolicy seeded with the given peer_id ->
// password entries. An empty password means "accept any password".
func NewListPolicy(entries map[uint32]string) *ListPolicy {
	allow := make(map[uint32]string, len(entries))
	for id, pw := range entries {
		allow[id] = pw
	}
	return &ListPolicy{allow: allow}
}

// AllowPeerID reports whether peerID has an allow-list entry.
func (l *ListPolicy) AllowPeerID(peerID uint32) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.allow[peerID]
	return ok
}

// CheckPassword reports whether password matches peerID's entry, or
// whether peerID's entry has no password requirement.
func (l *ListPolicy) CheckPassword(peerID uint32, password string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	want, ok := l.allow[peerID]
	if !ok {
		return false
	}
	return want == "" || want == password
}

// Password returns peerID's registered plaintext password (possibly
// empty, meaning "accept any") and whether peerID is on the allow-list
// at all. It implements auth.PasswordSource for the handshake
// controller, which needs the plaintext to recompute RPTK's
// sha256(salt||password) challenge response.
func (l *ListPolicy) Password(peerID uint32) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pw, ok := l.allow[peerID]
	return pw, ok
}

// Set adds or updates a single allow-list entry. An empty password
// accepts any password from that peer.
func (l *ListPolicy) Set(peerID uint32, password string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allow[peerID] = password
}

// Delete removes a peer from the allow-list.
func (l *ListPolicy) Delete(peerID uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.allow, peerID)
}

// Snapshot returns a copy of the current allow-list, without passwords,
// suitable for API responses.
func (l *ListPolicy) Snapshot() []uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]uint32, 0, len(l.allow))
	for id := range l.allow {
		ids = append(ids, id)
	}
	return ids
}
