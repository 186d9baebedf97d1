package protocol

import "strings"

// variant is one row of the packet factory's dispatch table: a magic
// prefix, the exact datagram length it requires, and the constructor to
// try when both match.
type variant struct {
	magic   string
	size    int
	parse   func([]byte) (any, error)
}

// variants is tried in order; magics that are prefixes of one another
// (RPTC/RPTCL, RPTACK/RPTPING don't collide but RPTCL and RPTC do) are
// ordered longest-magic-first so the more specific variant wins.
var variants = []variant{
	{MagicDMRD, SizeDMRD, wrap(ParseData)},
	{MagicDMRA, SizeDMRA, wrap(ParseTalkerAlias)},
	{MagicRPTCL, SizeRPTCL, wrap(ParseRepeaterClose)},
	{MagicRPTC, SizeRPTC, wrap(ParseConfig)},
	{MagicRPTK, SizeRPTK, wrap(ParseAuth)},
	{MagicRPTL, SizeRPTL, wrap(ParseLogin)},
	{MagicRPTACK, SizeRPTACK, wrap(ParseAck)},
	{MagicRPTPING, SizeRPTPING, wrap(ParsePing)},
	{MagicRPTSBKN, SizeRPTSBKN, wrap(ParseBeacon)},
	{MagicMSTPONG, SizeMSTPONG, wrap(ParsePong)},
	{MagicMSTNAK, SizeMSTNAK, wrap(ParseNak)},
	{MagicMSTCL, SizeMSTCL, wrap(ParseMasterClose)},
}

func wrap[T any](f func([]byte) (*T, error)) func([]byte) (any, error) {
	return func(data []byte) (any, error) {
		v, err := f(data)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Parse identifies and decodes a single inbound datagram by trying each
// registered variant's magic and exact length in turn. It returns the
// concrete *XxxPacket value as `any`; callers type-switch on the result.
func Parse(data []byte) (any, error) {
	for _, v := range variants {
		if len(data) == v.size && strings.HasPrefix(string(data), v.magic) {
			return v.parse(data)
		}
	}
	prefix := string(data)
	if len(prefix) > 7 {
		prefix = prefix[:7]
	}
	return nil, &ErrUnknownPacketType{Prefix: prefix}
}
