package protocol

import "github.com/dbehnke/dmr-nexus/pkg/protocol/bptc"

// FLCO identifies the format of a Link Control payload.
type FLCO byte

const (
	FLCOGroupCall   FLCO = 0x00
	FLCOUnitCall    FLCO = 0x03
	FLCOTalkerAlias FLCO = 0x04 // header; 0x05-0x07 are the three continuation blocks
	FLCOTalkerAliasCont1 FLCO = 0x05
	FLCOTalkerAliasCont2 FLCO = 0x06
	FLCOTalkerAliasCont3 FLCO = 0x07
	FLCOLocation    FLCO = 0x08
)

// isTalkerAliasContinuation reports whether flco is one of the three
// talker-alias continuation blocks (as opposed to the header, 0x04).
func isTalkerAliasContinuation(flco FLCO) bool {
	switch flco {
	case FLCOTalkerAliasCont1, FLCOTalkerAliasCont2, FLCOTalkerAliasCont3:
		return true
	default:
		return false
	}
}

// TalkerAliasFormat is the encoding of a talker-alias payload.
type TalkerAliasFormat byte

const (
	TAFormat7Bit   TalkerAliasFormat = 0
	TAFormatISO8   TalkerAliasFormat = 1
	TAFormatUTF8   TalkerAliasFormat = 2
	TAFormatUTF16BE TalkerAliasFormat = 3
)

// LC is a decoded 9-byte Link Control record (Full LC or assembled
// embedded LC), keyed by its FLCO byte.
type LC struct {
	FLCO  FLCO
	DstID uint32 // 24-bit
	SrcID uint32 // 24-bit

	// Location is populated when FLCO == FLCOLocation.
	Location *LocationLC

	// TalkerAliasHeader is populated when FLCO == FLCOTalkerAlias.
	TalkerAliasHeader *TalkerAliasHeader

	// TalkerAliasContinuation is populated when FLCO is one of the three
	// continuation blocks (0x05-0x07): 7 more raw bytes of alias text.
	TalkerAliasContinuation *[7]byte
}

// LocationLC is the decoded GPS position carried in a Location LC.
type LocationLC struct {
	LatitudeDegrees  float64
	LongitudeDegrees float64
}

// TalkerAliasHeader is the first talker-alias fragment: format + text
// length header, plus up to 7 bytes of the alias text itself.
type TalkerAliasHeader struct {
	Format TalkerAliasFormat
	Length byte // character count, per the header's length field
	Data   [7]byte
}

// DecodeLC decodes a 9-byte Full LC (or assembled embedded LC) record.
func DecodeLC(data [9]byte) *LC {
	flco := FLCO(data[0] & 0x3F)
	lc := &LC{
		FLCO:  flco,
		DstID: uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5]),
		SrcID: uint32(data[6])<<16 | uint32(data[7])<<8 | uint32(data[8]),
	}
	switch {
	case flco == FLCOLocation:
		lc.Location = decodeLocation(data)
	case flco == FLCOTalkerAlias:
		lc.TalkerAliasHeader = decodeTalkerAliasHeader(data)
	case isTalkerAliasContinuation(flco):
		var frag [7]byte
		copy(frag[:], data[2:9])
		lc.TalkerAliasContinuation = &frag
	}
	return lc
}

// decodeLocation decodes the 24-bit signed latitude carried in bytes 6-8
// and the 25-bit signed longitude carried in bytes 2-5 of a Location LC;
// both fields are two's-complement fractions of a half-circle.
func decodeLocation(data [9]byte) *LocationLC {
	latRaw := int32(data[6])<<16 | int32(data[7])<<8 | int32(data[8])
	if latRaw&0x800000 != 0 {
		latRaw -= 1 << 24
	}

	lonRawU := uint32(data[2])<<24 | uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
	lonRawU &= 0x1FFFFFF
	lonRaw := int32(lonRawU)
	if lonRaw&0x1000000 != 0 {
		lonRaw -= 1 << 25
	}

	return &LocationLC{
		LatitudeDegrees:  float64(latRaw) * 180.0 / (1 << 24),
		LongitudeDegrees: float64(lonRaw) * 360.0 / (1 << 25),
	}
}

func decodeTalkerAliasHeader(data [9]byte) *TalkerAliasHeader {
	h := &TalkerAliasHeader{
		Format: TalkerAliasFormat((data[2] >> 6) & 0x03),
		Length: (data[2] >> 1) & 0x1F,
	}
	copy(h.Data[:], data[2:9])
	// Bits 7-1 of the first byte are the format/length header, not text;
	// only its bit 0 ever carries alias data (the top bit of the first
	// 7-bit-encoded character).
	h.Data[0] &= 0x01
	return h
}

// FullLC extracts the 196-bit Full LC codeword from a 264-bit voice-header
// or voice-terminator payload: bits [0:98) followed by bits [166:264).
func FullLC(payloadBits []byte) [9]byte {
	window := make([]byte, 0, 196)
	window = append(window, payloadBits[0:98]...)
	window = append(window, payloadBits[166:264]...)
	return bptc.DecodeFullLC(window)
}

// VoiceBurst extracts the 32-bit embedded-LC fragment at bits [116:148)
// of a voice burst B-F payload. Four such fragments (one each from
// bursts B, C, D, E) are concatenated by EmbLCAssembler and decoded
// together into a single 9-byte LC record.
func VoiceBurst(payloadBits []byte) [32]byte {
	var frag [32]byte
	copy(frag[:], payloadBits[116:148])
	return frag
}
