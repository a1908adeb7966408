package wire

import (
	"bytes"
	"strconv"
)

// findField locates "<SOH>tag=" (or the message start for tag at
// position 0) and returns the byte range of its value, or ok=false if
// the field is absent — every parser below is tolerant of absence and
// returns a sentinel (spec.md §4.1, "Decoding operations").
func findField(msg []byte, tag int) (value []byte, ok bool) {
	needle := []byte(strconv.Itoa(tag) + "=")
	var at int
	if bytes.HasPrefix(msg, needle) {
		at = 0
	} else {
		withSOH := append([]byte{SOH}, needle...)
		idx := bytes.Index(msg, withSOH)
		if idx < 0 {
			return nil, false
		}
		at = idx + 1
	}
	start := at + len(needle)
	end := bytes.IndexByte(msg[start:], SOH)
	if end < 0 {
		return nil, false
	}
	return msg[start : start+end], true
}

func parseString(msg []byte, tag int) string {
	v, ok := findField(msg, tag)
	if !ok {
		return ""
	}
	return string(v)
}

func parseUint(msg []byte, tag int) uint64 {
	v, ok := findField(msg, tag)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(string(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseDigit(msg []byte, tag int) int {
	v, ok := findField(msg, tag)
	if !ok || len(v) == 0 {
		return -1
	}
	return int(v[0] - '0')
}

// ParseBeginString returns the BeginString value, or "" if absent.
func ParseBeginString(msg []byte) string { return parseString(msg, TagBeginString) }

// ParseCheckSum returns the stated checksum, or 0 if absent/unparseable.
func ParseCheckSum(msg []byte) uint64 { return parseUint(msg, TagCheckSum) }

// ParseBodyLength returns the stated BodyLength, or 0 if absent.
func ParseBodyLength(msg []byte) uint64 { return parseUint(msg, TagBodyLength) }

// ParseMsgType decodes tag 35 via the numeric re-mapping (Glossary:
// MsgType), returning MsgTypeInvalid if absent.
func ParseMsgType(msg []byte) MsgType {
	d := parseDigit(msg, TagMsgType)
	if d < 0 {
		return MsgTypeInvalid
	}
	return MsgType(d)
}

// ParseSender returns the SenderCompID, or "" if absent.
func ParseSender(msg []byte) string { return parseString(msg, TagSenderCompID) }

// ParseTarget returns the TargetCompID, or "" if absent.
func ParseTarget(msg []byte) string { return parseString(msg, TagTargetCompID) }

// ParseSeqNum returns MsgSeqNum, or 0 if absent.
func ParseSeqNum(msg []byte) uint64 { return parseUint(msg, TagMsgSeqNum) }

// ParseHeartbeat returns HeartBtInt, or 0 if absent.
func ParseHeartbeat(msg []byte) uint64 { return parseUint(msg, TagHeartBtInt) }

// ParseClOrdID returns ClOrdID, or "" if absent.
func ParseClOrdID(msg []byte) string { return parseString(msg, TagClOrdID) }

// ParseSymbol returns Symbol, or "" if absent.
func ParseSymbol(msg []byte) string { return parseString(msg, TagSymbol) }

// ParseSide decodes Side, returning SideInvalid if absent/unrecognized.
func ParseSide(msg []byte) Side {
	v, ok := findField(msg, TagSide)
	if !ok {
		return SideInvalid
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return SideInvalid
	}
	switch Side(n) {
	case SideBuy, SideSell:
		return Side(n)
	default:
		return SideInvalid
	}
}

// ParseOrderQty returns OrderQty, or 0 if absent.
func ParseOrderQty(msg []byte) uint64 { return parseUint(msg, TagOrderQty) }

// ParseOrdType decodes OrdType, returning OrdTypeInvalid if
// absent/unrecognized.
func ParseOrdType(msg []byte) OrdType {
	v, ok := findField(msg, TagOrdType)
	if !ok {
		return OrdTypeInvalid
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return OrdTypeInvalid
	}
	switch OrdType(n) {
	case OrdTypeMarket, OrdTypeLimit:
		return OrdType(n)
	default:
		return OrdTypeInvalid
	}
}

// ParsePrice returns Price, or 0 if absent/unparseable.
func ParsePrice(msg []byte) float64 {
	v, ok := findField(msg, TagPrice)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// ScanFrame looks for a complete framed message in buf: it starts at
// "8=" and ends at the SOH terminating the "10=XXX" checksum field
// (spec.md §4.4, socket reader). It returns the byte range [start,end)
// of the frame and ok=true when one is found; any bytes before start
// are leading garbage the caller should drop (resynchronization).
func ScanFrame(buf []byte) (start, end int, ok bool) {
	beginIdx := bytes.Index(buf, []byte("8="))
	if beginIdx < 0 {
		return 0, 0, false
	}
	tail := buf[beginIdx:]
	checksumIdx := bytes.Index(tail, []byte{SOH, '1', '0', '='})
	if checksumIdx < 0 {
		return 0, 0, false
	}
	// "<SOH>10=XXX<SOH>" is 8 bytes long from checksumIdx.
	if len(tail)-checksumIdx < 8 {
		return 0, 0, false
	}
	return beginIdx, beginIdx + checksumIdx + 8, true
}

// IsMessageValid implements spec.md §4.1's three-part validation:
// version, BodyLength, and checksum. All three are evaluated regardless
// of earlier failures (never fails fast).
func IsMessageValid(msg []byte, protocolVersion string) bool {
	validVersion := ParseBeginString(msg) == protocolVersion
	validLength := bodyLengthMatches(msg)
	validChecksum := checksumMatches(msg)
	return validVersion && validLength && validChecksum
}

func checksumMatches(msg []byte) bool {
	stated := ParseCheckSum(msg)
	trailerTag := []byte{SOH, '1', '0', '='}
	idx := bytes.Index(msg, trailerTag)
	if idx < 0 {
		return false
	}
	computed, err := strconv.ParseUint(Checksum(msg[:idx+1]), 10, 64)
	if err != nil {
		return false
	}
	return stated == computed
}

func bodyLengthMatches(msg []byte) bool {
	stated := ParseBodyLength(msg)

	bodyLenTag := []byte{SOH, '9', '='}
	start := bytes.Index(msg, bodyLenTag)
	if start < 0 {
		return false
	}
	afterTag := start + len(bodyLenTag)
	end := bytes.IndexByte(msg[afterTag:], SOH)
	if end < 0 {
		return false
	}
	bodyStart := afterTag + end + 1

	trailerTag := []byte{SOH, '1', '0', '='}
	checksumIdx := bytes.Index(msg, trailerTag)
	if checksumIdx < 0 {
		return false
	}
	bodyEnd := checksumIdx + 1

	if bodyEnd < bodyStart {
		return false
	}
	return stated == uint64(bodyEnd-bodyStart)
}
