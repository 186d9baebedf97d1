package protocol

import (
	"encoding/binary"
	"strings"
)

// DataPacket is DMRD: one AMBE+2 voice/data frame on a single timeslot.
type DataPacket struct {
	Seq       byte
	SrcID     uint32 // 24-bit
	DstID     uint32 // 24-bit
	PeerID    uint32
	bits      byte
	StreamID  uint32
	FrameData [33]byte
	BER       byte
	RSSI      byte
}

func ParseData(data []byte) (*DataPacket, error) {
	if len(data) != SizeDMRD || !strings.HasPrefix(string(data), MagicDMRD) {
		return nil, &ErrBadPacket{Magic: MagicDMRD, Size: len(data)}
	}
	p := &DataPacket{
		Seq:      data[offDMRDSeq],
		SrcID:    uint32(data[offDMRDSrcID])<<16 | uint32(data[offDMRDSrcID+1])<<8 | uint32(data[offDMRDSrcID+2]),
		DstID:    uint32(data[offDMRDDstID])<<16 | uint32(data[offDMRDDstID+1])<<8 | uint32(data[offDMRDDstID+2]),
		PeerID:   binary.BigEndian.Uint32(data[offDMRDPeerID : offDMRDPeerID+4]),
		bits:     data[offDMRDBits],
		StreamID: binary.BigEndian.Uint32(data[offDMRDStreamID : offDMRDStreamID+4]),
		BER:      data[offDMRDBER],
		RSSI:     data[offDMRDRSSI],
	}
	copy(p.FrameData[:], data[offDMRDData:offDMRDData+33])
	return p, nil
}

func (p *DataPacket) Encode() []byte {
	data := make([]byte, SizeDMRD)
	copy(data, MagicDMRD)
	data[offDMRDSeq] = p.Seq
	data[offDMRDSrcID] = byte(p.SrcID >> 16)
	data[offDMRDSrcID+1] = byte(p.SrcID >> 8)
	data[offDMRDSrcID+2] = byte(p.SrcID)
	data[offDMRDDstID] = byte(p.DstID >> 16)
	data[offDMRDDstID+1] = byte(p.DstID >> 8)
	data[offDMRDDstID+2] = byte(p.DstID)
	binary.BigEndian.PutUint32(data[offDMRDPeerID:offDMRDPeerID+4], p.PeerID)
	data[offDMRDBits] = p.bits
	binary.BigEndian.PutUint32(data[offDMRDStreamID:offDMRDStreamID+4], p.StreamID)
	copy(data[offDMRDData:offDMRDData+33], p.FrameData[:])
	data[offDMRDBER] = p.BER
	data[offDMRDRSSI] = p.RSSI
	return data
}

// Slot returns the timeslot this frame was sent on.
func (p *DataPacket) Slot() Slot {
	if p.bits&bitsSlotMask != 0 {
		return Slot2
	}
	return Slot1
}

// SetSlot sets the timeslot bit.
func (p *DataPacket) SetSlot(s Slot) {
	if s == Slot2 {
		p.bits |= bitsSlotMask
	} else {
		p.bits &^= bitsSlotMask
	}
}

// CallType returns whether this is a GROUP or UNIT call.
func (p *DataPacket) CallType() CallType {
	if p.bits&bitsCallTypeMask != 0 {
		return CallTypeUnit
	}
	return CallTypeGroup
}

// SetCallType sets the call-type bit.
func (p *DataPacket) SetCallType(c CallType) {
	if c == CallTypeUnit {
		p.bits |= bitsCallTypeMask
	} else {
		p.bits &^= bitsCallTypeMask
	}
}

// FrameType returns the raw 2-bit frame-type field (bits 5-4).
func (p *DataPacket) FrameType() byte {
	return (p.bits & bitsFrameTypeMask) >> 4
}

// Vseq returns the raw 4-bit voice/data sequence field (bits 3-0).
func (p *DataPacket) Vseq() byte {
	return p.bits & bitsVseqMask
}

// VoiceType returns the combined view of bits 5..0.
func (p *DataPacket) VoiceType() VoiceType {
	return voiceTypeFromValue(p.bits)
}

// SetVoiceType sets bits 5..0 to the given voice type's value, leaving the
// slot bit (7) and call-type bit (6) untouched.
func (p *DataPacket) SetVoiceType(v VoiceType) {
	p.bits = (p.bits &^ bitsVoiceTypeMask) | byte(v)
}

// IsVoiceTerminator reports whether this frame ends a voice stream.
func (p *DataPacket) IsVoiceTerminator() bool {
	return p.VoiceType() == VoiceTerm
}

// IsVoiceHeader reports whether this frame starts a voice stream.
func (p *DataPacket) IsVoiceHeader() bool {
	return p.VoiceType() == VoiceHead
}

// PayloadBits unpacks the 33-byte AMBE+2 frame into 264 bits, one byte
// per bit (0 or 1), most significant bit first, for consumption by
// FullLC/VoiceBurst.
func (p *DataPacket) PayloadBits() []byte {
	bits := make([]byte, 0, len(p.FrameData)*8)
	for _, b := range p.FrameData {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	return bits
}
