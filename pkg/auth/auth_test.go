package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowAllPolicy(t *testing.T) {
	var p AllowAllPolicy
	require.True(t, p.AllowPeerID(312000))
	require.True(t, p.CheckPassword(312000, "anything"))
}

func TestDenyAllPolicy(t *testing.T) {
	var p DenyAllPolicy
	require.False(t, p.AllowPeerID(312000))
	require.False(t, p.CheckPassword(312000, "anything"))
}

func TestListPolicy_EmptyPasswordAcceptsAny(t *testing.T) {
	p := NewListPolicy(map[uint32]string{312000: ""})
	require.True(t, p.AllowPeerID(312000))
	require.True(t, p.CheckPassword(312000, "whatever"))
	require.True(t, p.CheckPassword(312000, ""))
}

func TestListPolicy_PasswordMustMatch(t *testing.T) {
	p := NewListPolicy(map[uint32]string{312000: "secret"})
	require.True(t, p.CheckPassword(312000, "secret"))
	require.False(t, p.CheckPassword(312000, "wrong"))
}

func TestListPolicy_UnknownPeerDenied(t *testing.T) {
	p := NewListPolicy(nil)
	require.False(t, p.AllowPeerID(999))
	require.False(t, p.CheckPassword(999, ""))
}

func TestListPolicy_SetAndDelete(t *testing.T) {
	p := NewListPolicy(nil)
	p.Set(1, "pw")
	require.True(t, p.AllowPeerID(1))
	p.Delete(1)
	require.False(t, p.AllowPeerID(1))
}

type fakeStore struct {
	entries map[uint32]string
}

func newFakeStore() *fakeStore { return &fakeStore{entries: map[uint32]string{}} }

func (s *fakeStore) All() ([]StoreEntry, error) {
	out := make([]StoreEntry, 0, len(s.entries))
	for id, pw := range s.entries {
		out = append(out, StoreEntry{PeerID: id, Password: pw})
	}
	return out, nil
}

func (s *fakeStore) Upsert(peerID uint32, password string) error {
	s.entries[peerID] = password
	return nil
}

func (s *fakeStore) Delete(peerID uint32) error {
	delete(s.entries, peerID)
	return nil
}

func TestLoadFrom(t *testing.T) {
	store := newFakeStore()
	store.entries[312000] = "secret"

	p, err := LoadFrom(store)
	require.NoError(t, err)
	require.True(t, p.CheckPassword(312000, "secret"))
}

func TestSetAndPersist(t *testing.T) {
	store := newFakeStore()
	p := NewListPolicy(nil)

	require.NoError(t, p.SetAndPersist(store, 1, "pw"))
	require.True(t, p.AllowPeerID(1))
	require.Contains(t, store.entries, uint32(1))

	require.NoError(t, p.DeleteAndPersist(store, 1))
	require.False(t, p.AllowPeerID(1))
	require.NotContains(t, store.entries, uint32(1))
}
