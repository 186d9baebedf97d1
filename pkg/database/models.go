package database

// PeerAuthEntry is one row of the peer allow-list: a repeater ID
// permitted to log in, and the password it must present (empty means
// any password is accepted).
//
// This is the only table this package persists. Call records are
// explicitly out of scope; this is an operator-managed allow-list, not
// a traffic log.
type PeerAuthEntry struct {
	PeerID   uint32 `gorm:"primarykey" json:"peer_id"`
	Password string `json:"-"`
}

// TableName specifies the table name for PeerAuthEntry.
func (PeerAuthEntry) TableName() string {
	return "peer_auth"
}
