package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProtocolVersion = "FIX.4.2"

func buildSampleNewOrderSingle() []byte {
	payload := BuildNewOrderSingle(NewOrderParams{
		ClOrdID: "co-1",
		Symbol:  "AAPL",
		Side:    SideBuy,
		OrdType: OrdTypeLimit,
		Qty:     100,
		Price:   10.0,
	})
	return Build(testProtocolVersion, MsgTypeNewOrderSingle, payload, "ALICE", "MARKET", 1, time.Unix(0, 0))
}

func TestChecksumRoundTrip(t *testing.T) {
	msg := buildSampleNewOrderSingle()
	require.True(t, IsMessageValid(msg, testProtocolVersion))
}

func TestChecksumRoundTrip_MutatedByteFails(t *testing.T) {
	msg := buildSampleNewOrderSingle()
	mutated := append([]byte{}, msg...)
	// Flip a byte inside the symbol field.
	idx := indexOf(mutated, []byte("AAPL"))
	require.GreaterOrEqual(t, idx, 0)
	mutated[idx] = 'Z'

	assert.False(t, IsMessageValid(mutated, testProtocolVersion))
}

func TestChecksumRoundTrip_MissingChecksumFieldFails(t *testing.T) {
	msg := buildSampleNewOrderSingle()
	idx := indexOf(msg, []byte{SOH, '1', '0', '='})
	require.GreaterOrEqual(t, idx, 0)
	truncated := msg[:idx+1]

	assert.False(t, IsMessageValid(truncated, testProtocolVersion))
}

func TestIsMessageValid_WrongProtocolVersion(t *testing.T) {
	msg := buildSampleNewOrderSingle()
	assert.False(t, IsMessageValid(msg, "FIX.4.4"))
}

func TestParseFields(t *testing.T) {
	msg := buildSampleNewOrderSingle()

	assert.Equal(t, testProtocolVersion, ParseBeginString(msg))
	assert.Equal(t, MsgTypeNewOrderSingle, ParseMsgType(msg))
	assert.Equal(t, "ALICE", ParseSender(msg))
	assert.Equal(t, "MARKET", ParseTarget(msg))
	assert.Equal(t, uint64(1), ParseSeqNum(msg))
	assert.Equal(t, "AAPL", ParseSymbol(msg))
	assert.Equal(t, SideBuy, ParseSide(msg))
	assert.Equal(t, OrdTypeLimit, ParseOrdType(msg))
	assert.Equal(t, uint64(100), ParseOrderQty(msg))
	assert.InDelta(t, 10.0, ParsePrice(msg), 0.0001)
	assert.Equal(t, "co-1", ParseClOrdID(msg))
}

func TestParseAbsentFieldsReturnSentinels(t *testing.T) {
	msg := []byte("8=FIX.4.2\x019=5\x0135=0\x0110=000\x01")

	assert.Equal(t, "", ParseSender(msg))
	assert.Equal(t, uint64(0), ParseHeartbeat(msg))
	assert.Equal(t, SideInvalid, ParseSide(msg))
	assert.Equal(t, OrdTypeInvalid, ParseOrdType(msg))
	assert.Equal(t, float64(0), ParsePrice(msg))
}

func TestScanFrame(t *testing.T) {
	msg := buildSampleNewOrderSingle()
	garbage := append([]byte("garbage-before"), msg...)
	garbage = append(garbage, []byte("trailing-bytes")...)

	start, end, ok := ScanFrame(garbage)
	require.True(t, ok)
	assert.Equal(t, msg, garbage[start:end])
}

func TestScanFrame_Incomplete(t *testing.T) {
	msg := buildSampleNewOrderSingle()
	_, _, ok := ScanFrame(msg[:len(msg)-3])
	assert.False(t, ok)
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
