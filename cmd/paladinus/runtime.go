package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ramonpereira/paladinus-sub001/graph"
	"github.com/ramonpereira/paladinus-sub001/graph/emit"
	"github.com/ramonpereira/paladinus-sub001/graph/store"
)

// runtime holds the process-wide collaborators shared by every engine a
// command builds.
type runtime struct {
	logger  *slog.Logger
	emitter emit.Emitter
	metrics *graph.PrometheusMetrics
	store   store.PolicyStore

	closers []func(context.Context) error
}

func newLogger(w io.Writer, cfg Config) (*slog.Logger, error) {
	level, err := cfg.logLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Observability.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// openStore opens the policy store named by cfg.
func openStore(cfg StoreConfig) (store.PolicyStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return store.NewMemStore(), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "paladinus.db"
		}
		return store.NewSQLiteStore(dsn)
	case "mysql":
		if cfg.DSN == "" {
			return nil, errors.New("the mysql store needs a dsn")
		}
		return store.NewMySQLStore(cfg.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q (want memory, sqlite or mysql)", cfg.Driver)
}

func newRuntime(logger *slog.Logger, cfg Config) (*runtime, error) {
	rt := &runtime{logger: logger}

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	rt.store = st
	rt.closers = append(rt.closers, func(context.Context) error { return st.Close() })

	var emitters []emit.Emitter
	if cfg.Observability.Events {
		emitters = append(emitters, emit.NewSlogEmitter(logger))
	}
	if cfg.Observability.Tracing {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&logSpanProcessor{logger: logger}))
		emitters = append(emitters, emit.NewOTelEmitter(tp.Tracer("paladinus")))
		rt.closers = append(rt.closers, tp.Shutdown)
	}
	switch len(emitters) {
	case 0:
		rt.emitter = emit.NewNullEmitter()
	case 1:
		rt.emitter = emitters[0]
	default:
		rt.emitter = emit.NewMultiEmitter(emitters...)
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		registry := prometheus.NewRegistry()
		rt.metrics = graph.NewPrometheusMetrics(registry)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "addr", addr, "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", addr, "path", "/metrics")
		rt.closers = append(rt.closers, srv.Shutdown)
	}
	return rt, nil
}

// options returns the engine options of one run.
func (rt *runtime) options(o graph.Options) []graph.Option {
	o.Emitter = rt.emitter
	o.Metrics = rt.metrics
	o.Store = rt.store
	return []graph.Option{graph.WithOptions(o)}
}

// Close releases everything in reverse order of creation.
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.logger.Warn("shutdown", "error", err)
		}
	}
}

// logSpanProcessor writes every finished span to the logger at debug
// level.
type logSpanProcessor struct {
	logger *slog.Logger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := make([]any, 0, 2*len(s.Attributes())+4)
	args = append(args, "trace_id", s.SpanContext().TraceID().String(), "status", s.Status().Code.String())
	for _, kv := range s.Attributes() {
		args = append(args, string(kv.Key), attrValue(kv.Value))
	}
	p.logger.Debug("span "+s.Name(), args...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }

func attrValue(v attribute.Value) any {
	switch v.Type() {
	case attribute.BOOL:
		return v.AsBool()
	case attribute.INT64:
		return v.AsInt64()
	case attribute.FLOAT64:
		return v.AsFloat64()
	default:
		return v.Emit()
	}
}
