// Package engine wires the process lifecycle together: market, session
// registry, trading-protocol acceptor, and admin listener, plus
// ordered startup and shutdown (spec.md §4.6, SPEC expansion on
// lifecycle).
package engine

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchfix/internal/admin"
	"github.com/abdoElHodaky/matchfix/internal/config"
	"github.com/abdoElHodaky/matchfix/internal/market"
	"github.com/abdoElHodaky/matchfix/internal/metrics"
	"github.com/abdoElHodaky/matchfix/internal/registry"
	"github.com/abdoElHodaky/matchfix/internal/server"
)

// serverID is the SenderCompID/TargetCompID the engine uses for
// messages it originates, grounded in the source's fix_server_get_id.
const serverID = "MATCHFIX"

// Engine owns every long-lived component and their startup order.
type Engine struct {
	cfg config.Config

	logger          *zap.Logger
	metricsRegistry *prometheus.Registry

	market   *market.Market
	registry *registry.Registry
	trading  *server.Server
	adminSrv *admin.Server

	serveErr chan error
}

// New constructs every component without starting any of them.
func New(cfg config.Config, logger *zap.Logger) *Engine {
	promReg := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(promReg)

	mkt := market.Open(logger, metricsReg)
	reg := registry.Init(serverID, cfg.ProtocolVersion, logger, metricsReg, mkt)

	e := &Engine{
		cfg:             cfg,
		logger:          logger,
		metricsRegistry: promReg,
		market:          mkt,
		registry:        reg,
		serveErr:        make(chan error, 1),
	}
	e.adminSrv = admin.New(cfg.AdminAddr, promReg, e.Healthy, logger)

	return e
}

// Healthy reports process liveness for the admin /healthz endpoint: true
// once the market, registry and trading acceptor have been constructed.
// It does not track shutdown; after Stop closes the acceptor it still
// reports true.
func (e *Engine) Healthy() bool {
	return e.market != nil && e.registry != nil && e.trading != nil
}

// Start brings the engine up in dependency order: admin listener, then
// market (already open from New), then the trading acceptor (SPEC_FULL
// §4.6, "starts... before the trading acceptor... the admin HTTP
// listener").
func (e *Engine) Start() error {
	e.adminSrv.Start()

	trading, err := server.Listen(e.cfg.TradingAddr, e.registry, e.logger)
	if err != nil {
		return err
	}
	e.trading = trading

	go func() {
		e.serveErr <- e.trading.Serve()
	}()

	e.logger.Info("engine started",
		zap.String("trading_addr", e.cfg.TradingAddr),
		zap.String("admin_addr", e.cfg.AdminAddr))

	return nil
}

// Stop tears down in reverse order: trading acceptor, then market, then
// admin listener (SPEC_FULL §4.6).
func (e *Engine) Stop(ctx context.Context) error {
	if e.trading != nil {
		if err := e.trading.Close(); err != nil {
			e.logger.Warn("error closing trading listener", zap.Error(err))
		}
		<-e.serveErr
	}

	e.registry.Destroy()
	e.market.Close()

	if err := e.adminSrv.Stop(ctx); err != nil {
		return err
	}

	e.logger.Info("engine stopped")
	return nil
}
