package protocol

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// peerIDOnly parses a packet consisting of magic + 4-byte big-endian peer_id.
func peerIDOnly(data []byte, magic string, size int) (uint32, error) {
	if len(data) != size || !strings.HasPrefix(string(data), magic) {
		return 0, &ErrBadPacket{Magic: magic, Size: len(data)}
	}
	return binary.BigEndian.Uint32(data[len(magic):]), nil
}

func encodePeerIDOnly(magic string, size int, peerID uint32) []byte {
	data := make([]byte, size)
	copy(data, magic)
	binary.BigEndian.PutUint32(data[len(magic):], peerID)
	return data
}

// LoginPacket is RPTL: a peer's login request.
type LoginPacket struct{ PeerID uint32 }

func ParseLogin(data []byte) (*LoginPacket, error) {
	id, err := peerIDOnly(data, MagicRPTL, SizeRPTL)
	if err != nil {
		return nil, err
	}
	return &LoginPacket{PeerID: id}, nil
}

func (p *LoginPacket) Encode() []byte { return encodePeerIDOnly(MagicRPTL, SizeRPTL, p.PeerID) }

// AuthPacket is RPTK: the SHA-256(salt||password) challenge response.
type AuthPacket struct {
	PeerID   uint32
	PassHash [PassHashLength]byte
}

func ParseAuth(data []byte) (*AuthPacket, error) {
	if len(data) != SizeRPTK || !strings.HasPrefix(string(data), MagicRPTK) {
		return nil, &ErrBadPacket{Magic: MagicRPTK, Size: len(data)}
	}
	p := &AuthPacket{PeerID: binary.BigEndian.Uint32(data[4:8])}
	copy(p.PassHash[:], data[8:40])
	return p, nil
}

func (p *AuthPacket) Encode() []byte {
	data := make([]byte, SizeRPTK)
	copy(data, MagicRPTK)
	binary.BigEndian.PutUint32(data[4:8], p.PeerID)
	copy(data[8:40], p.PassHash[:])
	return data
}

// CalcPasswordHash computes SHA-256(salt||password), the RPTK pass_hash.
func CalcPasswordHash(salt []byte, password string) [PassHashLength]byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(password))
	var out [PassHashLength]byte
	copy(out[:], h.Sum(nil))
	return out
}

// configField describes one of RPTC's 13 fixed-width, space-padded ASCII fields.
type configField struct {
	offset, length int
}

var configFields = struct {
	Callsign, RXFreq, TXFreq, Power, ColorCode, Lat, Lon       configField
	Height, Location, Description, Slots, URL, SoftwareID, PackageID configField
}{
	Callsign:    configField{8, 8},
	RXFreq:      configField{16, 9},
	TXFreq:      configField{25, 9},
	Power:       configField{34, 2},
	ColorCode:   configField{36, 2},
	Lat:         configField{38, 8},
	Lon:         configField{46, 9},
	Height:      configField{55, 3},
	Location:    configField{58, 20},
	Description: configField{78, 19},
	Slots:       configField{97, 1},
	URL:         configField{98, 124},
	SoftwareID:  configField{222, 40},
	PackageID:   configField{262, 40},
}

// ConfigPacket is RPTC: a peer's repeater configuration block.
type ConfigPacket struct {
	PeerID                                                     uint32
	Callsign, RXFreq, TXFreq, Power, ColorCode, Lat, Lon       string
	Height, Location, Description, Slots, URL, SoftwareID, PackageID string
}

func readConfigStr(data []byte, f configField) string {
	return strings.Trim(string(data[f.offset:f.offset+f.length]), " \x00")
}

func writeConfigStr(data []byte, f configField, value string) {
	b := []byte(value)
	if len(b) > f.length {
		b = b[:f.length]
	}
	for i := 0; i < f.length; i++ {
		if i < len(b) {
			data[f.offset+i] = b[i]
		} else {
			data[f.offset+i] = ' '
		}
	}
}

func ParseConfig(data []byte) (*ConfigPacket, error) {
	if len(data) != SizeRPTC || !strings.HasPrefix(string(data), MagicRPTC) {
		return nil, &ErrBadPacket{Magic: MagicRPTC, Size: len(data)}
	}
	p := &ConfigPacket{
		PeerID:      binary.BigEndian.Uint32(data[4:8]),
		Callsign:    readConfigStr(data, configFields.Callsign),
		RXFreq:      readConfigStr(data, configFields.RXFreq),
		TXFreq:      readConfigStr(data, configFields.TXFreq),
		Power:       readConfigStr(data, configFields.Power),
		ColorCode:   readConfigStr(data, configFields.ColorCode),
		Lat:         readConfigStr(data, configFields.Lat),
		Lon:         readConfigStr(data, configFields.Lon),
		Height:      readConfigStr(data, configFields.Height),
		Location:    readConfigStr(data, configFields.Location),
		Description: readConfigStr(data, configFields.Description),
		Slots:       readConfigStr(data, configFields.Slots),
		URL:         readConfigStr(data, configFields.URL),
		SoftwareID:  readConfigStr(data, configFields.SoftwareID),
		PackageID:   readConfigStr(data, configFields.PackageID),
	}
	return p, nil
}

func (p *ConfigPacket) Encode() []byte {
	data := make([]byte, SizeRPTC)
	for i := range data {
		data[i] = ' '
	}
	copy(data, MagicRPTC)
	binary.BigEndian.PutUint32(data[4:8], p.PeerID)
	writeConfigStr(data, configFields.Callsign, p.Callsign)
	writeConfigStr(data, configFields.RXFreq, p.RXFreq)
	writeConfigStr(data, configFields.TXFreq, p.TXFreq)
	writeConfigStr(data, configFields.Power, p.Power)
	writeConfigStr(data, configFields.ColorCode, p.ColorCode)
	writeConfigStr(data, configFields.Lat, p.Lat)
	writeConfigStr(data, configFields.Lon, p.Lon)
	writeConfigStr(data, configFields.Height, p.Height)
	writeConfigStr(data, configFields.Location, p.Location)
	writeConfigStr(data, configFields.Description, p.Description)
	writeConfigStr(data, configFields.Slots, p.Slots)
	writeConfigStr(data, configFields.URL, p.URL)
	writeConfigStr(data, configFields.SoftwareID, p.SoftwareID)
	writeConfigStr(data, configFields.PackageID, p.PackageID)
	return data
}

// PingPacket is RPTPING: a peer's keepalive.
type PingPacket struct{ PeerID uint32 }

func ParsePing(data []byte) (*PingPacket, error) {
	id, err := peerIDOnly(data, MagicRPTPING, SizeRPTPING)
	if err != nil {
		return nil, err
	}
	return &PingPacket{PeerID: id}, nil
}

func (p *PingPacket) Encode() []byte { return encodePeerIDOnly(MagicRPTPING, SizeRPTPING, p.PeerID) }

// PongPacket is MSTPONG: the master's keepalive reply.
type PongPacket struct{ PeerID uint32 }

func ParsePong(data []byte) (*PongPacket, error) {
	id, err := peerIDOnly(data, MagicMSTPONG, SizeMSTPONG)
	if err != nil {
		return nil, err
	}
	return &PongPacket{PeerID: id}, nil
}

func (p *PongPacket) Encode() []byte { return encodePeerIDOnly(MagicMSTPONG, SizeMSTPONG, p.PeerID) }

// NakPacket is MSTNAK: a negative acknowledgement from the master.
type NakPacket struct{ PeerID uint32 }

func ParseNak(data []byte) (*NakPacket, error) {
	id, err := peerIDOnly(data, MagicMSTNAK, SizeMSTNAK)
	if err != nil {
		return nil, err
	}
	return &NakPacket{PeerID: id}, nil
}

func (p *NakPacket) Encode() []byte { return encodePeerIDOnly(MagicMSTNAK, SizeMSTNAK, p.PeerID) }

// MasterClosePacket is MSTCL: the master closing a peer's connection.
type MasterClosePacket struct{ PeerID uint32 }

func ParseMasterClose(data []byte) (*MasterClosePacket, error) {
	id, err := peerIDOnly(data, MagicMSTCL, SizeMSTCL)
	if err != nil {
		return nil, err
	}
	return &MasterClosePacket{PeerID: id}, nil
}

func (p *MasterClosePacket) Encode() []byte { return encodePeerIDOnly(MagicMSTCL, SizeMSTCL, p.PeerID) }

// RepeaterClosePacket is RPTCL: a peer closing its own connection.
type RepeaterClosePacket struct{ PeerID uint32 }

func ParseRepeaterClose(data []byte) (*RepeaterClosePacket, error) {
	id, err := peerIDOnly(data, MagicRPTCL, SizeRPTCL)
	if err != nil {
		return nil, err
	}
	return &RepeaterClosePacket{PeerID: id}, nil
}

func (p *RepeaterClosePacket) Encode() []byte { return encodePeerIDOnly(MagicRPTCL, SizeRPTCL, p.PeerID) }

// BeaconPacket is RPTSBKN: a periodic repeater beacon.
type BeaconPacket struct{ PeerID uint32 }

func ParseBeacon(data []byte) (*BeaconPacket, error) {
	id, err := peerIDOnly(data, MagicRPTSBKN, SizeRPTSBKN)
	if err != nil {
		return nil, err
	}
	return &BeaconPacket{PeerID: id}, nil
}

func (p *BeaconPacket) Encode() []byte { return encodePeerIDOnly(MagicRPTSBKN, SizeRPTSBKN, p.PeerID) }

// AckPacket is RPTACK carrying a peer ID: the master's acknowledgement of
// an RPTK or RPTC. The magic is shared with SaltPacket; on the receive path an RPTACK is
// always parsed as an ack (salt is server-originated only, see SaltPacket).
type AckPacket struct{ PeerID uint32 }

func ParseAck(data []byte) (*AckPacket, error) {
	id, err := peerIDOnly(data, MagicRPTACK, SizeRPTACK)
	if err != nil {
		return nil, err
	}
	return &AckPacket{PeerID: id}, nil
}

func (p *AckPacket) Encode() []byte { return encodePeerIDOnly(MagicRPTACK, SizeRPTACK, p.PeerID) }

// SaltPacket is the server's RPTACK-shaped login-challenge reply. It is
// constructed locally by the server and never parsed off the wire.
type SaltPacket struct{ Salt [SaltLength]byte }

// NewSalt generates a fresh cryptographically random salt.
func NewSalt() (*SaltPacket, error) {
	var s SaltPacket
	if _, err := rand.Read(s.Salt[:]); err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *SaltPacket) Encode() []byte {
	data := make([]byte, SizeRPTACK)
	copy(data, MagicRPTACK)
	copy(data[6:10], p.Salt[:])
	return data
}

// TalkerAliasPacket is DMRA: a talker-alias fragment forwarded verbatim.
type TalkerAliasPacket struct {
	SrcID  uint32 // 24-bit
	PeerID uint32
	TAData [4]byte
}

func ParseTalkerAlias(data []byte) (*TalkerAliasPacket, error) {
	if len(data) != SizeDMRA || !strings.HasPrefix(string(data), MagicDMRA) {
		return nil, &ErrBadPacket{Magic: MagicDMRA, Size: len(data)}
	}
	p := &TalkerAliasPacket{
		SrcID:  uint32(data[4])<<16 | uint32(data[5])<<8 | uint32(data[6]),
		PeerID: binary.BigEndian.Uint32(data[7:11]),
	}
	copy(p.TAData[:], data[11:15])
	return p, nil
}

func (p *TalkerAliasPacket) Encode() []byte {
	data := make([]byte, SizeDMRA)
	copy(data, MagicDMRA)
	data[4] = byte(p.SrcID >> 16)
	data[5] = byte(p.SrcID >> 8)
	data[6] = byte(p.SrcID)
	binary.BigEndian.PutUint32(data[7:11], p.PeerID)
	copy(data[11:15], p.TAData[:])
	return data
}
