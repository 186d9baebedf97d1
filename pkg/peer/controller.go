package peer

import (
	"crypto/rand"
	"net"

	"github.com/dbehnke/dmr-nexus/pkg/auth"
	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

// Controller drives the LOGIN -> AUTH -> CONFIG -> ACTIVE handshake:
// each method validates one inbound handshake packet against the
// peer's current state and the configured auth policy, mutates the
// registry, and returns the bytes to send back (or nil to send
// nothing, e.g. a silently dropped packet).
type Controller struct {
	Registry *Registry
	Policy   auth.Policy
	Log      *logger.Logger
}

// NewController returns a handshake controller over registry, enforcing
// policy. log may be nil.
func NewController(registry *Registry, policy auth.Policy, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.New(logger.Config{})
	}
	return &Controller{Registry: registry, Policy: policy, Log: log}
}

// HandleLogin processes an RPTL. A brand-new peer ID is registered at
// StateLogin and issued a salt; a peer ID already past StateLogin is
// rejected outright (LOGIN is exact-match, see isApplicable).
func (c *Controller) HandleLogin(addr *net.UDPAddr, pkt *protocol.LoginPacket) []byte {
	if !c.Policy.AllowPeerID(pkt.PeerID) {
		c.Log.Warn("login rejected by auth policy", logger.Uint32("peer_id", pkt.PeerID))
		return (&protocol.NakPacket{PeerID: pkt.PeerID}).Encode()
	}

	p, ok := c.Registry.GetByID(pkt.PeerID)
	if ok && !p.IsApplicable(StateLogin) {
		c.Log.Warn("login rejected, peer already past login", logger.Uint32("peer_id", pkt.PeerID))
		return (&protocol.NakPacket{PeerID: pkt.PeerID}).Encode()
	}
	if !ok {
		var err error
		p, err = c.Registry.Add(pkt.PeerID, addr)
		if err != nil {
			c.Log.Warn("login rejected", logger.Uint32("peer_id", pkt.PeerID), logger.Error(err))
			return (&protocol.NakPacket{PeerID: pkt.PeerID}).Encode()
		}
	}

	var salt [protocol.SaltLength]byte
	if _, err := rand.Read(salt[:]); err != nil {
		c.Log.Error("failed to generate salt", logger.Error(err))
		return (&protocol.NakPacket{PeerID: pkt.PeerID}).Encode()
	}
	p.SetSalt(salt)
	p.UpdateLastHeard()

	return (&protocol.SaltPacket{Salt: salt}).Encode()
}

// HandleAuth processes an RPTK. The peer must be exactly at StateLogin
// (it must have just received a salt). On a correct password hash the
// peer advances to StateAuth and receives an ack; otherwise it is
// rejected and removed.
func (c *Controller) HandleAuth(pkt *protocol.AuthPacket) []byte {
	p, ok := c.Registry.GetByID(pkt.PeerID)
	if !ok || !p.IsApplicable(StateLogin) {
		return (&protocol.NakPacket{PeerID: pkt.PeerID}).Encode()
	}

	salt := p.GetSalt()
	// verifyPassword recomputes sha256(salt||password) itself when the
	// policy exposes plaintext passwords (auth.PasswordSource); otherwise
	// it defers to the policy's AllowPeerID and CheckPassword with an
	// empty password.
	if !c.verifyPassword(pkt.PeerID, salt, pkt.PassHash) {
		c.Log.Warn("auth failed", logger.Uint32("peer_id", pkt.PeerID))
		c.Registry.Remove(pkt.PeerID)
		return (&protocol.NakPacket{PeerID: pkt.PeerID}).Encode()
	}

	p.SetState(StateAuth)
	p.UpdateLastHeard()
	return (&protocol.AckPacket{PeerID: pkt.PeerID}).Encode()
}

// verifyPassword checks pkt's password hash against the password the
// policy holds for peerID. Since Policy only exposes a boolean
// CheckPassword(id, password) and RPTK carries sha256(salt||password),
// not password itself, an auth.Policy backing a real deployment must
// additionally satisfy auth.PasswordSource so the hash can be
// recomputed and compared; AllowAllPolicy and DenyAllPolicy trivially
// decide without needing the plaintext at all.
func (c *Controller) verifyPassword(peerID uint32, salt [protocol.SaltLength]byte, hash [protocol.PassHashLength]byte) bool {
	switch p := c.Policy.(type) {
	case auth.PasswordSource:
		password, ok := p.Password(peerID)
		if !ok {
			return false
		}
		if password == "" {
			return true
		}
		want := protocol.CalcPasswordHash(salt[:], password)
		return want == hash
	default:
		return c.Policy.AllowPeerID(peerID) && c.Policy.CheckPassword(peerID, "")
	}
}

// HandleConfig processes an RPTC. The peer must be at least StateAuth
// (forward-loose: CONFIG and ACTIVE peers may also resend their config).
func (c *Controller) HandleConfig(pkt *protocol.ConfigPacket) []byte {
	p, ok := c.Registry.GetByID(pkt.PeerID)
	if !ok || !p.IsApplicable(StateAuth) {
		return (&protocol.NakPacket{PeerID: pkt.PeerID}).Encode()
	}

	p.SetConfig(pkt)
	p.UpdateLastHeard()
	if p.GetState() == StateAuth {
		p.SetState(StateConfig)
	}
	return (&protocol.AckPacket{PeerID: pkt.PeerID}).Encode()
}

// HandlePing processes an RPTPING. The peer must be at least
// StateConfig. The first ping (or any traffic) after configuration
// promotes the peer to StateActive.
func (c *Controller) HandlePing(pkt *protocol.PingPacket) []byte {
	p, ok := c.Registry.GetByID(pkt.PeerID)
	if !ok || !p.IsApplicable(StateConfig) {
		return nil
	}
	p.UpdateLastHeard()
	if p.GetState() == StateConfig {
		p.SetActive()
	}
	return (&protocol.PongPacket{PeerID: pkt.PeerID}).Encode()
}

// HandleClose processes an RPTCL: the peer is immediately marked DEAD
// and dropped from the registry.
func (c *Controller) HandleClose(pkt *protocol.RepeaterClosePacket) {
	if p, ok := c.Registry.GetByID(pkt.PeerID); ok {
		p.SetState(StateDead)
	}
	c.Registry.Remove(pkt.PeerID)
}

// Touch records that traffic (DMRD, DMRA, beacon) was seen from a peer
// already at StateConfig or StateActive, promoting it to StateActive on
// first contact.
func (c *Controller) Touch(peerID uint32) bool {
	p, ok := c.Registry.GetByID(peerID)
	if !ok || !p.IsApplicable(StateConfig) {
		return false
	}
	p.UpdateLastHeard()
	if p.GetState() == StateConfig {
		p.SetActive()
	}
	return true
}
