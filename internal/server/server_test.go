package server

import (
	"net"
	"testing"
	"time"

	"github.com/abdoElHodaky/matchfix/internal/market"
	"github.com/abdoElHodaky/matchfix/internal/metrics"
	"github.com/abdoElHodaky/matchfix/internal/registry"
	"github.com/abdoElHodaky/matchfix/internal/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testProtocolVersion = "FIX.4.2"

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	m := market.Open(zap.NewNop(), reg)
	t.Cleanup(m.Close)
	return registry.Init("MATCHFIX", testProtocolVersion, zap.NewNop(), reg, m)
}

func buildLogon(sender string, seq uint64) []byte {
	return wire.Build(testProtocolVersion, wire.MsgTypeLogon, wire.BuildLogon(0, 0), sender, "MATCHFIX", seq, time.Now())
}

func TestServer_LogonIntakeActivatesSession(t *testing.T) {
	reg := newTestRegistry(t)
	srv, err := Listen("127.0.0.1:0", reg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	go srv.Serve()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Write(buildLogon("CLIENT1", 1))
	require.NoError(t, err)

	buf := make([]byte, 256)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)

	reply := buf[:n]
	assert.Equal(t, wire.MsgTypeLogon, wire.ParseMsgType(reply))
	assert.Equal(t, "CLIENT1", wire.ParseTarget(reply))
}

func TestServer_DropsConnectionOnInvalidLogon(t *testing.T) {
	reg := newTestRegistry(t)
	srv, err := Listen("127.0.0.1:0", reg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	go srv.Serve()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// An un-checksummed, un-terminated payload never yields a scanned
	// frame, so the acceptor just keeps reading until the peer closes.
	_, err = conn.Write([]byte("garbage without a valid frame"))
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	_, err = conn.Read(buf)
	assert.Error(t, err)
}
