package database

import (
	"gorm.io/gorm"

	"github.com/dbehnke/dmr-nexus/pkg/auth"
)

// PeerAuthRepository persists the peer allow-list backing
// auth.ListPolicy, so an operator can manage it without restarting the
// master.
type PeerAuthRepository struct {
	db *gorm.DB
}

// NewPeerAuthRepository creates a new peer auth repository.
func NewPeerAuthRepository(db *gorm.DB) *PeerAuthRepository {
	return &PeerAuthRepository{db: db}
}

// Upsert creates or updates a single allow-list entry.
func (r *PeerAuthRepository) Upsert(entry *PeerAuthEntry) error {
	return r.db.Save(entry).Error
}

// Delete removes an allow-list entry.
func (r *PeerAuthRepository) Delete(peerID uint32) error {
	return r.db.Delete(&PeerAuthEntry{}, "peer_id = ?", peerID).Error
}

// allEntries returns every allow-list entry.
func (r *PeerAuthRepository) allEntries() ([]PeerAuthEntry, error) {
	var entries []PeerAuthEntry
	err := r.db.Find(&entries).Error
	return entries, err
}

// AuthStore adapts PeerAuthRepository to auth.Store, so
// auth.ListPolicy can be seeded from and synced against this table
// without pkg/auth importing gorm.
func (r *PeerAuthRepository) AuthStore() auth.Store { return authStore{r} }

type authStore struct{ r *PeerAuthRepository }

func (s authStore) All() ([]auth.StoreEntry, error) {
	rows, err := s.r.allEntries()
	if err != nil {
		return nil, err
	}
	entries := make([]auth.StoreEntry, len(rows))
	for i, row := range rows {
		entries[i] = auth.StoreEntry{PeerID: row.PeerID, Password: row.Password}
	}
	return entries, nil
}

func (s authStore) Upsert(peerID uint32, password string) error {
	return s.r.Upsert(&PeerAuthEntry{PeerID: peerID, Password: password})
}

func (s authStore) Delete(peerID uint32) error {
	return s.r.Delete(peerID)
}
