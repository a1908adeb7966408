// Package registry maps sender identifiers to sessions, resolving a
// freshly received logon to either an existing or a newly created
// session (spec.md §4.5).
package registry

import (
	"sync"

	"github.com/abdoElHodaky/matchfix/internal/errs"
	"github.com/abdoElHodaky/matchfix/internal/market"
	"github.com/abdoElHodaky/matchfix/internal/metrics"
	"github.com/abdoElHodaky/matchfix/internal/session"
	"github.com/abdoElHodaky/matchfix/internal/wire"
	"go.uber.org/zap"
)

// Registry owns every session for the life of the process. Entries are
// added, never removed, until Destroy (spec.md §2, "Session registry").
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session.Session

	serverID        string
	protocolVersion string

	logger  *zap.Logger
	metrics *metrics.Registry
	market  *market.Market
}

// Init constructs an empty registry. Calling it is idempotent in the
// sense that each call returns a fresh, independent registry; there is
// no global singleton to re-initialize.
func Init(serverID, protocolVersion string, logger *zap.Logger, reg *metrics.Registry, mkt *market.Market) *Registry {
	return &Registry{
		sessions:        make(map[string]*session.Session),
		serverID:        serverID,
		protocolVersion: protocolVersion,
		logger:          logger,
		metrics:         reg,
		market:          mkt,
	}
}

// Lookup validates message, extracts its sender id, and atomically
// returns the existing session for that id or creates one (spec.md
// §4.5, "lookup"). rx_seq_num on a newly created session always starts
// at 1 (spec.md §9) regardless of the seq number message carries.
func (r *Registry) Lookup(message []byte) (*session.Session, error) {
	if !wire.IsMessageValid(message, r.protocolVersion) {
		return nil, errs.New(errs.InvalidMessage, "message failed structural validation")
	}

	senderID := wire.ParseSender(message)
	if senderID == "" {
		return nil, errs.New(errs.MissingSender, "SenderCompID absent or empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[senderID]; ok {
		return s, nil
	}

	s := session.New(senderID, r.serverID, r.protocolVersion, r.logger, r.metrics, r.market)
	r.sessions[senderID] = s

	if r.metrics != nil {
		r.metrics.SessionsCreated.Inc()
	}

	return s, nil
}

// Destroy deactivates and flushes every session (spec.md §4.5,
// "destroy").
func (r *Registry) Destroy() {
	r.mu.Lock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*session.Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Deactivate()
	}
}
