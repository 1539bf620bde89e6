package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/DevBash1/trackpadal/api/connect"
	"github.com/DevBash1/trackpadal/config"
	coremetrics "github.com/DevBash1/trackpadal/core/metrics"
	"github.com/DevBash1/trackpadal/core/relay"
	"github.com/DevBash1/trackpadal/core/session"
	"github.com/DevBash1/trackpadal/infra/bus"
	"github.com/DevBash1/trackpadal/infra/integrator"
	"github.com/DevBash1/trackpadal/infra/logger"
	"github.com/DevBash1/trackpadal/infra/metrics"
	"github.com/DevBash1/trackpadal/infra/ws"
	"github.com/DevBash1/trackpadal/internal/eventbus"
)

// Service orchestrates the relay, the websocket hub and the connect API.
type Service struct {
	Relay       *relay.Relay
	client      *bus.PahoClient
	signals     *eventbus.Bus
	server      *http.Server
	log         logger.Logger
	closeSink   func()
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	client, err := bus.NewPahoClient(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("bus client: %w", err)
	}

	var sinks []coremetrics.TelemetrySink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	var closeSink func()
	if cfg.Metrics.InfluxEnabled {
		influx := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
		if is, ok := influx.(*metrics.InfluxSink); ok {
			closeSink = is.Close
		}
		sinks = append(sinks, influx)
	}
	var sink coremetrics.TelemetrySink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	signals := eventbus.New()
	rel := relay.New(client, cfg.Receivers, signals, sink, logger.New("relay"))

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHub(rel, logger.New("ws")))
	if cfg.Integration.APIURL != "" {
		integ := integrator.New(cfg.Integration)
		cache := session.NewCache(integ, logger.New("session"))
		mux.Handle("/connect/", connect.NewHandler(cache, logger.New("connect")))
	} else {
		logg.Warnf("integration api not configured, /connect/ disabled")
	}

	svc := &Service{
		Relay:       rel,
		client:      client,
		signals:     signals,
		server:      &http.Server{Addr: cfg.Server.Listen, Handler: mux},
		log:         logg,
		closeSink:   closeSink,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	return svc, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	sub := s.signals.Subscribe()
	go func() {
		for e := range sub {
			if sig, ok := e.(relay.PlanSignal); ok {
				s.log.Infof("plan %s: %s (conn %s)", sig.Event, sig.Plan.Plan, sig.ConnID)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Relay.Drain()
	s.signals.Close()
	if s.closeSink != nil {
		s.closeSink()
	}
	s.client.Disconnect()
	return nil
}
