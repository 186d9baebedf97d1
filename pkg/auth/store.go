package auth

// Store is the persistence boundary ListPolicy can optionally sync
// against (backed by pkg/database.PeerAuthRepository in production,
// or an in-memory fake in tests).
type Store interface {
	All() ([]StoreEntry, error)
	Upsert(peerID uint32, password string) error
	Delete(peerID uint32) error
}

// StoreEntry is one persisted allow-list row.
type StoreEntry struct {
	PeerID   uint32
	Password string
}

// LoadFrom seeds a ListPolicy from every entry currently in store.
func LoadFrom(store Store) (*ListPolicy, error) {
	entries, err := store.All()
	if err != nil {
		return nil, err
	}
	seed := make(map[uint32]string, len(entries))
	for _, e := range entries {
		seed[e.PeerID] = e.Password
	}
	return NewListPolicy(seed), nil
}

// SetAndPersist updates both the in-memory policy and the backing store.
func (l *ListPolicy) SetAndPersist(store Store, peerID uint32, password string) error {
	if err := store.Upsert(peerID, password); err != nil {
		return err
	}
	l.Set(peerID, password)
	return nil
}

// DeleteAndPersist removes an entry from both the in-memory policy and
// the backing store.
func (l *ListPolicy) DeleteAndPersist(store Store, peerID uint32) error {
	if err := store.Delete(peerID); err != nil {
		return err
	}
	l.Delete(peerID)
	return nil
}
