package protocol

import (
	"unicode/utf16"

	"github.com/dbehnke/dmr-nexus/pkg/protocol/bptc"
)

// embBurstOrder is the sequence in which voice bursts B, C, D, E each
// contribute one quarter of the embedded LC. Burst A carries no embedded
// LC fragment (it follows the voice header directly).
var embBurstOrder = []VoiceType{VoiceB, VoiceC, VoiceD, VoiceE}

// EmbLCAssemblerError means a voice burst fragment could not be added to
// an EmbLCAssembler: a gap or repeat in vseq, or a burst arriving out of
// its expected B/C/D/E order. The assembler resets itself before
// returning this error, so the next fragment starts a fresh superframe.
type EmbLCAssemblerError struct {
	Reason string
}

func (e *EmbLCAssemblerError) Error() string {
	return "embedded LC assembly failed: " + e.Reason
}

// EmbLCAssembler collects the four embedded-LC fragments (bursts B-E) of
// one voice superframe and decodes them into an LC once complete.
//
// Callers must key one assembler per stream_id: the assembler itself
// only tracks fragment order, vseq continuity, and count, it has no
// notion of which call the fragments belong to.
type EmbLCAssembler struct {
	fragments [4][32]byte
	collected int
	lastVseq  byte
}

// NewEmbLCAssembler returns an empty assembler ready to collect a new
// superframe's fragments.
func NewEmbLCAssembler() *EmbLCAssembler {
	return &EmbLCAssembler{}
}

// Add feeds one voice burst's embedded-LC fragment into the assembler.
// burst identifies which of B/C/D/E this fragment is; vseq is the
// frame's voice sequence number. For every fragment after the first in a
// superframe, vseq must equal the previous fragment's vseq+1 mod 256,
// and burst must be the next one expected in B/C/D/E order — either
// mismatch resets the assembler and returns an EmbLCAssemblerError.
// Add returns the decoded LC once all four fragments have been
// collected, and nil otherwise.
func (a *EmbLCAssembler) Add(burst VoiceType, vseq byte, frag [32]byte) (*LC, error) {
	want := embBurstOrder[a.collected]

	if a.collected > 0 && vseq != byte((int(a.lastVseq)+1)%0x100) {
		a.Reset()
		return nil, &EmbLCAssemblerError{Reason: "wrong vseq"}
	}
	if burst != want {
		a.Reset()
		return nil, &EmbLCAssemblerError{Reason: "wrong burst order"}
	}

	a.fragments[a.collected] = frag
	a.lastVseq = vseq
	a.collected++
	if a.collected < 4 {
		return nil, nil
	}

	window := make([]byte, 0, 128)
	for _, f := range a.fragments {
		window = append(window, f[:]...)
	}
	lc := DecodeLC(bptc.DecodeEmbeddedLC(window))
	a.collected = 0
	return lc, nil
}

// Reset discards any partially-collected fragments.
func (a *EmbLCAssembler) Reset() {
	a.collected = 0
	a.lastVseq = 0
}

// TalkerAliasAssembler collects a header fragment (format + length) plus
// up to three continuation fragments and decodes the alias text once
// enough bytes have arrived.
type TalkerAliasAssembler struct {
	header *TalkerAliasHeader
	tail   [][7]byte
}

// NewTalkerAliasAssembler returns an empty talker-alias assembler.
func NewTalkerAliasAssembler() *TalkerAliasAssembler {
	return &TalkerAliasAssembler{}
}

// AddHeader feeds the FLCOTalkerAlias (0x04) header fragment.
func (a *TalkerAliasAssembler) AddHeader(h *TalkerAliasHeader) {
	a.header = h
	a.tail = a.tail[:0]
}

// AddContinuation feeds one of the three continuation fragments
// (FLCO 0x05-0x07), each carrying 7 more bytes of alias text.
func (a *TalkerAliasAssembler) AddContinuation(data [7]byte) {
	a.tail = append(a.tail, data)
}

// Decode renders the collected fragments as text, or false if no header
// has been seen yet. TAFormat7Bit is not supported and yields false.
func (a *TalkerAliasAssembler) Decode() (string, bool) {
	if a.header == nil || a.header.Format == TAFormat7Bit {
		return "", false
	}
	raw := make([]byte, 0, 7+7*len(a.tail))
	raw = append(raw, a.header.Data[:]...)
	for _, frag := range a.tail {
		raw = append(raw, frag[:]...)
	}
	n := int(a.header.Length)
	switch a.header.Format {
	case TAFormatISO8:
		if n > len(raw) {
			n = len(raw)
		}
		return string(raw[:n]), true
	case TAFormatUTF8:
		if n > len(raw) {
			n = len(raw)
		}
		return string(raw[:n]), true
	case TAFormatUTF16BE:
		units := make([]uint16, 0, len(raw)/2)
		for i := 0; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		out := string(utf16.Decode(units))
		if n > 0 && n <= len(out) {
			out = out[:n]
		}
		return out, true
	default:
		return "", false
	}
}

// CallLCDecoder resolves the Link Control metadata for a single call
// stream: the Full LC from the voice header/terminator (authoritative)
// falling back to the embedded LC reassembled from bursts B-E, plus any
// GPS position and talker alias carried alongside the call.
type CallLCDecoder struct {
	emb  *EmbLCAssembler
	ta   *TalkerAliasAssembler
	full *LC
	gps  *LocationLC
}

// NewCallLCDecoder returns a decoder for one call stream.
func NewCallLCDecoder() *CallLCDecoder {
	return &CallLCDecoder{emb: NewEmbLCAssembler(), ta: NewTalkerAliasAssembler()}
}

// OnVoiceHeader decodes the Full LC from a voice-header frame.
func (d *CallLCDecoder) OnVoiceHeader(payloadBits []byte) {
	lc := DecodeLC(FullLC(payloadBits))
	d.full = lc
}

// OnVoiceTerminator decodes the Full LC from a voice-terminator frame,
// which repeats the same fields as the header.
func (d *CallLCDecoder) OnVoiceTerminator(payloadBits []byte) {
	if d.full == nil {
		d.full = DecodeLC(FullLC(payloadBits))
	}
}

// OnVoiceBurst feeds one embedded-LC fragment from a voice burst B-F. A
// repeater may use the embedded-signalling channel to carry talker alias
// instead of voice LC for a given superframe; an assembled LC in the
// talker-alias FLCO range is routed into the alias assembler rather than
// treated as the call's Full LC. A vseq gap or out-of-order burst resets
// the in-flight superframe silently: this is purely additive end-of-call
// metadata, so a dropped assembly attempt is not otherwise reported.
func (d *CallLCDecoder) OnVoiceBurst(burst VoiceType, vseq byte, payloadBits []byte) {
	frag := VoiceBurst(payloadBits)
	lc, err := d.emb.Add(burst, vseq, frag)
	if err != nil || lc == nil {
		return
	}
	switch {
	case lc.FLCO == FLCOLocation:
		d.gps = lc.Location
	case lc.FLCO == FLCOTalkerAlias:
		d.ta.AddHeader(lc.TalkerAliasHeader)
	case isTalkerAliasContinuation(lc.FLCO):
		if lc.TalkerAliasContinuation != nil {
			d.ta.AddContinuation(*lc.TalkerAliasContinuation)
		}
	default:
		if d.full == nil {
			d.full = lc
		}
	}
}

// OnTalkerAlias feeds one DMRA packet's alias payload. flco
// distinguishes the 0x04 header fragment from the 0x05-0x07
// continuations, matching FLCO's talker-alias block numbering.
func (d *CallLCDecoder) OnTalkerAlias(flco FLCO, data [4]byte) {
	if flco == FLCOTalkerAlias {
		var raw [9]byte
		raw[0] = byte(flco)
		copy(raw[2:], data[:])
		d.ta.AddHeader(decodeTalkerAliasHeader(raw))
		return
	}
	var frag [7]byte
	copy(frag[:], data[:])
	d.ta.AddContinuation(frag)
}

// LC returns the best Link Control record known so far (full LC if
// present, embedded LC otherwise), or nil.
func (d *CallLCDecoder) LC() *LC { return d.full }

// GPS returns the last decoded GPS position, or nil.
func (d *CallLCDecoder) GPS() *LocationLC { return d.gps }

// TalkerAlias returns the decoded alias text, if any.
func (d *CallLCDecoder) TalkerAlias() (string, bool) { return d.ta.Decode() }
