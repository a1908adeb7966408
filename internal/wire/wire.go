// Package wire implements the engine's tag=value wire codec: a
// length-prefixed, checksummed, SOH-delimited message format modeled on
// FIX 4.2 (spec.md §4.1). It is a set of pure functions over byte
// buffers; there is no session state here.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// SOH is the field separator and terminator byte.
const SOH = 0x01

// Field tags, a small subset of the FIX 4.2 tag space.
const (
	TagBeginString = 8
	TagBodyLength  = 9
	TagMsgType     = 35
	TagCheckSum    = 10
	TagClOrdID     = 11
	TagMsgSeqNum   = 34
	TagSenderCompID = 49
	TagTargetCompID = 56
	TagSendingTime  = 52
	TagSymbol       = 55
	TagSide         = 54
	TagOrderQty     = 38
	TagOrdType      = 40
	TagPrice        = 44
	TagEncryptMethod = 98
	TagHeartBtInt    = 108
)

// MsgType is the engine's internal message-type enumeration. The wire
// value is a single ASCII character, decoded by subtracting '0' (Glossary:
// MsgType), the same numeric re-mapping `fix_message.h` uses.
type MsgType int

const (
	MsgTypeHeartbeat MsgType = iota
	MsgTypeTestRequest
	MsgTypeResendRequest
	MsgTypeReject
	MsgTypeSeqReset
	MsgTypeLogout
	MsgTypeIndicationOfInterest
	MsgTypeAdvert
	MsgTypeExecReport
	MsgTypeOrderCancelReject

	MsgTypeLogon MsgType = 17

	MsgTypeNewOrderSingle            MsgType = 20
	MsgTypeOrderCancelRequest        MsgType = 21
	MsgTypeOrderCancelReplaceRequest MsgType = 22
	MsgTypeOrderStatusRequest        MsgType = 23

	MsgTypeInvalid MsgType = -1
)

// Side is the order side; its tag value is parsed as a decimal integer.
type Side int

const (
	SideInvalid Side = 0
	SideBuy     Side = 1
	SideSell    Side = 2
)

// OrdType is the order type tag value.
type OrdType int

const (
	OrdTypeInvalid OrdType = 0
	OrdTypeMarket  OrdType = 1
	OrdTypeLimit   OrdType = 2
)

// ErrInvalidMessage is the error value for a structurally invalid
// message. No function in this package returns it; IsMessageValid
// reports validity as a bool.
var ErrInvalidMessage = errors.New("wire: invalid message")

func field(tag int, value string) []byte {
	b := make([]byte, 0, len(value)+8)
	b = append(b, []byte(strconv.Itoa(tag))...)
	b = append(b, '=')
	b = append(b, []byte(value)...)
	b = append(b, SOH)
	return b
}

// Checksum computes the modulo-256 sum of buf, rendered as three
// zero-padded decimal digits (spec.md §4.1, "Checksum").
func Checksum(buf []byte) string {
	var sum byte
	for _, c := range buf {
		sum += c
	}
	return fmt.Sprintf("%03d", sum)
}

// buildBody emits everything between BodyLength's terminating SOH and
// the checksum field: MsgType, SenderCompID, MsgSeqNum, TargetCompID,
// SendingTime, then payload.
func buildBody(msgType MsgType, payload []byte, sender, target string, seqNum uint64, at time.Time) []byte {
	b := field(TagMsgType, string(rune('0'+int(msgType))))
	b = append(b, field(TagSenderCompID, sender)...)
	b = append(b, field(TagMsgSeqNum, strconv.FormatUint(seqNum, 10))...)
	b = append(b, field(TagTargetCompID, target)...)
	b = append(b, field(TagSendingTime, at.UTC().Format("20060102-15:04:05.000"))...)
	return append(b, payload...)
}

// BuildHeader emits BeginString and BodyLength, where BodyLength is
// computed over the body that buildBody would produce for the same
// arguments (spec.md §4.1, "BodyLength").
func BuildHeader(protocolVersion string, msgType MsgType, payload []byte, sender, target string, seqNum uint64, at time.Time) []byte {
	body := buildBody(msgType, payload, sender, target, seqNum, at)
	h := field(TagBeginString, protocolVersion)
	return append(h, field(TagBodyLength, strconv.Itoa(len(body)))...)
}

// BuildTrailer emits the CheckSum field for headerAndPayload, the bytes
// preceding the trailer (spec.md §4.1, "CheckSum").
func BuildTrailer(headerAndPayload []byte) []byte {
	return field(TagCheckSum, Checksum(headerAndPayload))
}

// Build assembles a complete message: header ∥ payload ∥ trailer,
// exactly as spec.md §4.1 defines assembly.
func Build(protocolVersion string, msgType MsgType, payload []byte, sender, target string, seqNum uint64, at time.Time) []byte {
	header := BuildHeader(protocolVersion, msgType, payload, sender, target, seqNum, at)
	body := buildBody(msgType, payload, sender, target, seqNum, at)
	full := append(header, body...)
	return append(full, BuildTrailer(full)...)
}

// BuildLogon emits the Logon (98=…108=…) field block.
func BuildLogon(encryptMethod int, heartBtInterval int) []byte {
	b := field(TagEncryptMethod, strconv.Itoa(encryptMethod))
	return append(b, field(TagHeartBtInt, strconv.Itoa(heartBtInterval))...)
}

// NewOrderParams carries the fields BuildNewOrderSingle needs.
type NewOrderParams struct {
	ClOrdID string
	Symbol  string
	Side    Side
	OrdType OrdType
	Qty     uint64
	Price   float64
}

// BuildNewOrderSingle emits a NewOrderSingle field block.
func BuildNewOrderSingle(p NewOrderParams) []byte {
	b := field(TagClOrdID, p.ClOrdID)
	b = append(b, field(TagSymbol, p.Symbol)...)
	b = append(b, field(TagSide, strconv.Itoa(int(p.Side)))...)
	b = append(b, field(TagOrderQty, strconv.FormatUint(p.Qty, 10))...)
	b = append(b, field(TagOrdType, strconv.Itoa(int(p.OrdType)))...)
	b = append(b, field(TagPrice, strconv.FormatFloat(p.Price, 'f', 4, 64))...)
	return b
}
