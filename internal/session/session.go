// Package session implements one FIX-like connection's state machine:
// three cooperating workers (socket reader, inbound processor, outbound
// writer) sharing a lock and two condition variables (spec.md §4.4).
package session

import (
	"net"
	"sync"
	"time"

	"github.com/abdoElHodaky/matchfix/internal/errs"
	"github.com/abdoElHodaky/matchfix/internal/market"
	"github.com/abdoElHodaky/matchfix/internal/metrics"
	"github.com/abdoElHodaky/matchfix/internal/order"
	"github.com/abdoElHodaky/matchfix/internal/wire"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// State is the session's connectivity state machine (spec.md §4.4,
// "State machine").
type State int

const (
	Created State = iota
	Active
	Inactive
)

// worker identifies which of the three goroutines is calling deactivate,
// so it can skip joining itself — the corrected version of the source's
// inverted self-join check (spec.md §9, "deactivate... join workers
// only when the caller is not the worker").
type worker int

const (
	workerNone worker = iota
	workerReader
	workerProcessor
	workerWriter
)

const readBufSize = 256

// Session is one SenderCompID's connection state. rxSeqNum always
// starts at 1, reproducing the source's fix_session_create, which
// accepts a client-declared start but never applies it (spec.md §9,
// "rx_seq_num starts at 1").
type Session struct {
	SenderCompID string
	// CorrelationID tags every log record this session emits.
	CorrelationID string

	serverID        string
	protocolVersion string

	logger  *zap.Logger
	metrics *metrics.Registry
	market  *market.Market

	mu     sync.Mutex
	rxCond *sync.Cond
	txCond *sync.Cond

	conn  net.Conn
	state State

	rxQueue [][]byte
	txQueue [][]byte

	rxSeqNum uint64
	txSeqNum uint64

	readerDone    chan struct{}
	processorDone chan struct{}
	writerDone    chan struct{}
}

// New constructs a session in the Created state; it is not yet
// associated with a socket and has no running workers.
func New(senderCompID, serverID, protocolVersion string, logger *zap.Logger, reg *metrics.Registry, mkt *market.Market) *Session {
	s := &Session{
		SenderCompID:    senderCompID,
		CorrelationID:   ksuid.New().String(),
		serverID:        serverID,
		protocolVersion: protocolVersion,
		logger:          logger,
		metrics:         reg,
		market:          mkt,
		state:           Created,
		rxSeqNum:        1,
		txSeqNum:        1,
	}
	s.rxCond = sync.NewCond(&s.mu)
	s.txCond = sync.NewCond(&s.mu)
	return s
}

// IsActive reports whether the session currently has running workers.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Active
}

// Activate binds conn to the session and starts its three workers
// (spec.md §4.4, "Created → Active"). It is idempotent: activating an
// already-active session is a no-op, matching the source's
// `if(!session->is_active)` guard.
func (s *Session) Activate(conn net.Conn) {
	s.mu.Lock()
	if s.state == Active {
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.state = Active
	s.readerDone = make(chan struct{})
	s.processorDone = make(chan struct{})
	s.writerDone = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("session activated",
		zap.String("sender", s.SenderCompID),
		zap.String("correlation_id", s.CorrelationID))

	if s.metrics != nil {
		s.metrics.SessionsActive.Inc()
	}

	go s.runReader()
	go s.runProcessor()
	go s.runWriter()
}

// EnqueueRx pushes an already-framed message onto the rx queue and
// signals the processor, the same path the socket reader uses. The
// acceptor's one-shot logon intake (spec.md §4.6) calls this directly
// to hand off the first message read before Activate started the
// reader.
func (s *Session) EnqueueRx(msg []byte) {
	s.mu.Lock()
	s.rxQueue = append(s.rxQueue, msg)
	s.mu.Unlock()
	s.rxCond.Signal()
}

// SendMessage builds a complete framed message with the next
// post-incremented tx_seq_num, enqueues it on the tx queue, and signals
// the writer (spec.md §4.4, "Outbound enqueue"). It takes no ownership
// semantics to preserve in Go; payload must not be mutated afterward.
func (s *Session) SendMessage(msgType wire.MsgType, payload []byte) {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return
	}
	seq := s.txSeqNum
	s.txSeqNum++
	msg := wire.Build(s.protocolVersion, msgType, payload, s.serverID, s.SenderCompID, seq, time.Now())
	s.txQueue = append(s.txQueue, msg)
	s.mu.Unlock()

	s.txCond.Signal()
}

// Deactivate stops the session from outside any of its workers
// (registry teardown at process shutdown).
func (s *Session) Deactivate() {
	s.deactivate(workerNone)
}

// deactivate clears the active flag, wakes both condition variables,
// closes the socket to unblock a blocked reader, then joins every
// worker other than self (spec.md §4.4, "Deactivation"; spec.md §9
// corrects the source's inverted self-join check).
func (s *Session) deactivate(self worker) {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return
	}
	s.state = Inactive
	s.rxCond.Signal()
	s.txCond.Signal()
	conn := s.conn
	s.mu.Unlock()

	s.logger.Info("session deactivated",
		zap.String("sender", s.SenderCompID),
		zap.String("correlation_id", s.CorrelationID))

	if s.metrics != nil {
		s.metrics.SessionsActive.Dec()
	}

	if conn != nil {
		_ = conn.Close()
	}

	if self != workerProcessor {
		<-s.processorDone
	}
	if self != workerWriter {
		<-s.writerDone
	}
	if self != workerReader {
		<-s.readerDone
	}
}

// runReader is the socket reader worker: it reads into a growable
// buffer, extracts every complete frame found, and enqueues each on the
// rx queue (spec.md §4.4, "Socket reader").
func (s *Session) runReader() {
	buf := make([]byte, 0, readBufSize)
	tmp := make([]byte, readBufSize)

	for s.IsActive() {
		n, err := s.conn.Read(tmp)
		if err != nil {
			s.deactivate(workerReader)
			break
		}
		buf = append(buf, tmp[:n]...)

		for {
			start, end, ok := wire.ScanFrame(buf)
			if !ok {
				break
			}
			frame := make([]byte, end-start)
			copy(frame, buf[start:end])
			s.EnqueueRx(frame)
			buf = buf[end:]

			if s.metrics != nil {
				s.metrics.MessagesReceived.Inc()
			}
		}
	}

	close(s.readerDone)
}

// runProcessor is the inbound processor worker: it drains the rx queue
// strictly in arrival order, validating and dispatching each message
// (spec.md §4.4, "Inbound processor").
func (s *Session) runProcessor() {
	s.mu.Lock()
	for s.state == Active {
		for len(s.rxQueue) > 0 {
			msg := s.rxQueue[0]
			s.rxQueue = s.rxQueue[1:]
			s.mu.Unlock()

			s.processMessage(msg)

			s.mu.Lock()
		}
		if s.state != Active {
			break
		}
		s.rxCond.Wait()
	}
	s.mu.Unlock()

	close(s.processorDone)
}

func (s *Session) processMessage(msg []byte) {
	if !wire.IsMessageValid(msg, s.protocolVersion) {
		s.logger.Warn("invalid message, deactivating",
			zap.String("sender", s.SenderCompID),
			zap.String("correlation_id", s.CorrelationID),
			zap.String("code", string(errs.InvalidMessage)))
		s.deactivate(workerProcessor)
		return
	}

	seq := wire.ParseSeqNum(msg)

	s.mu.Lock()
	expected := s.rxSeqNum
	s.mu.Unlock()

	if seq != expected {
		s.logger.Warn("sequence mismatch, deactivating",
			zap.String("sender", s.SenderCompID),
			zap.String("correlation_id", s.CorrelationID),
			zap.Uint64("expected", expected),
			zap.Uint64("got", seq),
			zap.String("code", string(errs.SequenceMismatch)))
		s.deactivate(workerProcessor)
		return
	}

	s.mu.Lock()
	s.rxSeqNum++
	s.mu.Unlock()

	switch wire.ParseMsgType(msg) {
	case wire.MsgTypeLogon:
		s.SendMessage(wire.MsgTypeLogon, wire.BuildLogon(0, 0))
	case wire.MsgTypeLogout:
		s.SendMessage(wire.MsgTypeLogout, nil)
	case wire.MsgTypeNewOrderSingle:
		s.processNewOrderSingle(msg)
	default:
		s.logger.Warn("unsupported message type, deactivating",
			zap.String("sender", s.SenderCompID),
			zap.String("correlation_id", s.CorrelationID))
		s.deactivate(workerProcessor)
	}
}

// processNewOrderSingle parses the order and submits it to the market.
// If side or order type fails to decode to a supported value, the
// message is dropped silently (spec.md §4.4, "otherwise drop
// silently").
func (s *Session) processNewOrderSingle(msg []byte) {
	side := wire.ParseSide(msg)
	ordType := wire.ParseOrdType(msg)
	if side == wire.SideInvalid || ordType == wire.OrdTypeInvalid {
		return
	}

	o := order.New(
		wire.ParseClOrdID(msg),
		wire.ParseSymbol(msg),
		toOrderSide(side),
		toOrderType(ordType),
		wire.ParsePrice(msg),
		wire.ParseOrderQty(msg),
	)

	if err := s.market.ProcessOrder(o); err != nil {
		s.logger.Warn("order rejected by market",
			zap.String("sender", s.SenderCompID),
			zap.String("correlation_id", s.CorrelationID),
			zap.String("symbol", o.Symbol),
			zap.Error(err))
	}
}

func toOrderSide(side wire.Side) order.Side {
	if side == wire.SideSell {
		return order.Sell
	}
	return order.Buy
}

func toOrderType(ordType wire.OrdType) order.Type {
	if ordType == wire.OrdTypeMarket {
		return order.Market
	}
	return order.Limit
}

// runWriter is the outbound writer worker: it drains the tx queue in
// FIFO order and writes each message to the socket (spec.md §4.4,
// "Outbound writer").
func (s *Session) runWriter() {
	s.mu.Lock()
	for s.state == Active {
		for len(s.txQueue) > 0 {
			msg := s.txQueue[0]
			s.txQueue = s.txQueue[1:]
			s.mu.Unlock()

			if _, err := s.conn.Write(msg); err != nil {
				s.deactivate(workerWriter)
				s.mu.Lock()
				break
			}

			if s.metrics != nil {
				s.metrics.MessagesSent.Inc()
			}

			s.mu.Lock()
		}
		if s.state != Active {
			break
		}
		s.txCond.Wait()
	}
	s.mu.Unlock()

	close(s.writerDone)
}
