package registry

import (
	"net"
	"testing"
	"time"

	"github.com/abdoElHodaky/matchfix/internal/errs"
	"github.com/abdoElHodaky/matchfix/internal/market"
	"github.com/abdoElHodaky/matchfix/internal/metrics"
	"github.com/abdoElHodaky/matchfix/internal/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testProtocolVersion = "FIX.4.2"

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	m := market.Open(zap.NewNop(), reg)
	t.Cleanup(m.Close)
	return Init("MATCHFIX", testProtocolVersion, zap.NewNop(), reg, m)
}

func buildLogon(sender string, seq uint64) []byte {
	return wire.Build(testProtocolVersion, wire.MsgTypeLogon, wire.BuildLogon(0, 0), sender, "MATCHFIX", seq, time.Now())
}

func TestLookup_CreatesThenReuses(t *testing.T) {
	r := newTestRegistry(t)

	logon := buildLogon("CLIENT1", 1)

	s1, err := r.Lookup(logon)
	require.NoError(t, err)
	require.NotNil(t, s1)
	assert.Equal(t, "CLIENT1", s1.SenderCompID)

	s2, err := r.Lookup(logon)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestLookup_InvalidMessage(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Lookup([]byte("not a fix message"))
	require.Error(t, err)
	assert.Equal(t, errs.InvalidMessage, errs.CodeOf(err))
}

func TestLookup_MissingSender(t *testing.T) {
	r := newTestRegistry(t)

	msg := wire.Build(testProtocolVersion, wire.MsgTypeLogon, wire.BuildLogon(0, 0), "", "MATCHFIX", 1, time.Now())

	_, err := r.Lookup(msg)
	require.Error(t, err)
	assert.Equal(t, errs.MissingSender, errs.CodeOf(err))
}

func TestDestroy_DeactivatesAllSessions(t *testing.T) {
	r := newTestRegistry(t)

	s, err := r.Lookup(buildLogon("CLIENT1", 1))
	require.NoError(t, err)

	_, serverConn := net.Pipe()
	s.Activate(serverConn)
	require.True(t, s.IsActive())

	r.Destroy()

	assert.False(t, s.IsActive())
}
