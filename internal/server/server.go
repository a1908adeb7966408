// Package server implements the trading-protocol TCP front: a listener
// that accepts connections serially and hands each one to the session
// registry after a one-shot logon intake (spec.md §4.6).
package server

import (
	"errors"
	"net"

	"github.com/abdoElHodaky/matchfix/internal/registry"
	"github.com/abdoElHodaky/matchfix/internal/wire"
	"go.uber.org/zap"
)

const logonReadBufSize = 256

// Server owns the trading-protocol listener.
type Server struct {
	listener net.Listener
	registry *registry.Registry
	logger   *zap.Logger
}

// Listen binds a TCP listener on addr. The backlog is left to the
// platform's default (Go's net package always passes the platform's
// SOMAXCONN to listen(2), matching spec.md §6's "SOMAXCONN backlog").
func Listen(addr string, reg *registry.Registry, logger *zap.Logger) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: l, registry: reg, logger: logger}, nil
}

// Addr returns the bound listening address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections serially until the listener is closed,
// performing a one-shot logon intake on each (spec.md §4.6). It returns
// nil once the listener has been closed by Close.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.readLogon(conn)
	}
}

// Close stops the listener, causing a blocked Serve to return.
func (s *Server) Close() error {
	return s.listener.Close()
}

// readLogon reads bytes from conn until one complete framed message is
// buffered, resolves it through the registry, and either activates the
// resolved session on conn or drops the connection (spec.md §4.6,
// "one-shot logon intake"). It never touches conn again afterward.
func (s *Server) readLogon(conn net.Conn) {
	buf := make([]byte, 0, logonReadBufSize)
	tmp := make([]byte, logonReadBufSize)

	for {
		n, err := conn.Read(tmp)
		if err != nil {
			s.logger.Debug("client disconnected before logon completed")
			_ = conn.Close()
			return
		}
		buf = append(buf, tmp[:n]...)

		start, end, ok := wire.ScanFrame(buf)
		if !ok {
			continue
		}

		msg := buf[start:end]
		sess, err := s.registry.Lookup(msg)
		if err != nil {
			s.logger.Warn("logon intake failed", zap.Error(err))
			_ = conn.Close()
			return
		}

		if sess.IsActive() {
			s.logger.Warn("logon for already-active session, dropping connection",
				zap.String("sender", sess.SenderCompID))
			_ = conn.Close()
			return
		}

		sess.Activate(conn)
		sess.EnqueueRx(msg)
		return
	}
}
