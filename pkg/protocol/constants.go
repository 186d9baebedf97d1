// Package protocol implements the MMDVM/Homebrew-Protocol wire codec: a
// small family of fixed-layout UDP packets exchanged between DMR
// repeaters ("peers") and a master server.
package protocol

// Packet type magics (ASCII prefixes, 4-7 bytes).
const (
	MagicDMRD    = "DMRD"
	MagicRPTL    = "RPTL"
	MagicRPTK    = "RPTK"
	MagicRPTC    = "RPTC"
	MagicRPTCL   = "RPTCL"
	MagicRPTACK  = "RPTACK"
	MagicRPTPING = "RPTPING"
	MagicRPTSBKN = "RPTSBKN"
	MagicMSTPONG = "MSTPONG"
	MagicMSTNAK  = "MSTNAK"
	MagicMSTCL   = "MSTCL"
	MagicDMRA    = "DMRA"
)

// Fixed packet sizes in bytes.
const (
	SizeRPTL    = 8
	SizeRPTK    = 40
	SizeRPTC    = 302
	SizeRPTPING = 11
	SizeMSTPONG = 11
	SizeMSTNAK  = 10
	SizeMSTCL   = 9
	SizeRPTCL   = 9
	SizeRPTACK  = 10
	SizeRPTSBKN = 11
	SizeDMRA    = 15
	SizeDMRD    = 55
)

// SaltLength is the length in bytes of the login-challenge salt.
const SaltLength = 4

// PassHashLength is the length in bytes of SHA-256(salt||password).
const PassHashLength = 32

// DMRD field offsets.
const (
	offDMRDSeq      = 4
	offDMRDSrcID    = 5
	offDMRDDstID    = 8
	offDMRDPeerID   = 11
	offDMRDBits     = 15
	offDMRDStreamID = 16
	offDMRDData     = 20
	offDMRDBER      = 53
	offDMRDRSSI     = 54
)

// Bits-byte (offset 15) sub-field masks.
const (
	bitsSlotMask      = 0x80 // bit 7
	bitsCallTypeMask  = 0x40 // bit 6
	bitsFrameTypeMask = 0x30 // bits 5-4
	bitsVseqMask      = 0x0F // bits 3-0
	bitsVoiceTypeMask = 0x3F // bits 5-0
)

// Slot identifies a DMR time slot.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// CallType distinguishes talkgroup (GROUP) from subscriber (UNIT) calls.
type CallType int

const (
	CallTypeGroup CallType = iota
	CallTypeUnit
)

func (c CallType) String() string {
	if c == CallTypeUnit {
		return "UNIT"
	}
	return "GROUP"
}

// VoiceType is the combined view of bits 5..0 of the DMRD bits byte.
type VoiceType int

const (
	VoiceNone VoiceType = 0b000000
	VoiceHead VoiceType = 0b100001
	VoiceA    VoiceType = 0b010000
	VoiceB    VoiceType = 0b000001
	VoiceC    VoiceType = 0b000010
	VoiceD    VoiceType = 0b000011
	VoiceE    VoiceType = 0b000100
	VoiceF    VoiceType = 0b000101
	VoiceTerm VoiceType = 0b100010
)

func (v VoiceType) String() string {
	switch v {
	case VoiceHead:
		return "HEAD"
	case VoiceA:
		return "BURST_A"
	case VoiceB:
		return "BURST_B"
	case VoiceC:
		return "BURST_C"
	case VoiceD:
		return "BURST_D"
	case VoiceE:
		return "BURST_E"
	case VoiceF:
		return "BURST_F"
	case VoiceTerm:
		return "TERM"
	default:
		return "NONE"
	}
}

func voiceTypeFromValue(v byte) VoiceType {
	switch VoiceType(v & bitsVoiceTypeMask) {
	case VoiceHead:
		return VoiceHead
	case VoiceA:
		return VoiceA
	case VoiceB:
		return VoiceB
	case VoiceC:
		return VoiceC
	case VoiceD:
		return VoiceD
	case VoiceE:
		return VoiceE
	case VoiceF:
		return VoiceF
	case VoiceTerm:
		return VoiceTerm
	default:
		return VoiceNone
	}
}
