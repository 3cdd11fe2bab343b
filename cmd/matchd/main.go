// Command matchd runs a single-instrument matching engine behind a session
// adapter. It reads JSON-lines session messages, writes one JSON execution
// report per message and prints the aggregated book when the input ends.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	match "github.com/0x5487/orderbook"
	"github.com/0x5487/orderbook/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg, os.Stderr)
	match.SetLogger(logger)
	gateway.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, closeInput, err := openInput(cfg.Input)
	if err != nil {
		logger.Error("failed to open input", "input", cfg.Input, "error", err)
		os.Exit(1)
	}
	defer closeInput()

	if err := run(ctx, cfg, logger, in, os.Stdout); err != nil {
		logger.Error("matchd failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, _ := cfg.level()
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// run serves every message read from in and prints the final book to out.
func run(ctx context.Context, cfg *Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	registry := prometheus.NewRegistry()
	metrics := match.NewMetricsPublishLog(registry)

	engine := match.NewMatchingEngine(nil,
		match.WithRingBufferSize(cfg.RingBufferSize),
		match.WithMetrics(metrics),
	)
	go engine.Run()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	session := gateway.NewSession(cfg.Symbol, engine)
	logger.Info("matchd started", "symbol", cfg.Symbol, "input", cfg.Input, "metrics_addr", cfg.MetricsAddr)
	if err := serve(ctx, session, logger, in, out); err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	info, err := engine.OrderInfo(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to read order book: %w", err)
	}
	if err := printLadder(out, info); err != nil {
		return err
	}

	return engine.Shutdown(shutdownCtx)
}

// serve answers each input line until EOF or until ctx ends. Reading runs in
// its own goroutine so a signal is honored while the input is idle.
func serve(ctx context.Context, session *gateway.Session, logger *slog.Logger, in io.Reader, out io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		var line []byte
		select {
		case <-ctx.Done():
			logger.Info("stopping on signal")
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-readErr
			}
			line = l
		}

		if len(line) == 0 {
			continue
		}

		report, err := session.Handle(ctx, line)
		if errors.Is(err, gateway.ErrMalformedMessage) || errors.Is(err, gateway.ErrUnsupportedMsgType) {
			logger.Warn("message dropped", "error", err)
			continue
		}
		if errors.Is(err, match.ErrTimeout) && ctx.Err() != nil {
			logger.Warn("stopping on signal with a request in flight", "error", err)
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(out, "%s\n", report); err != nil {
			return err
		}
	}
}

// printLadder renders the aggregated book, bids first.
func printLadder(out io.Writer, info *match.AggregatedOrderbook) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "--- Aggregated Order Book ---")
	fmt.Fprintln(w, "Bids:")
	fmt.Fprintln(w, "PRICE\tSIZE")
	for _, lvl := range info.Bids {
		fmt.Fprintf(w, "%s\t%s\n", lvl.Price, lvl.Size)
	}
	fmt.Fprintln(w, "Asks:")
	fmt.Fprintln(w, "PRICE\tSIZE")
	for _, lvl := range info.Asks {
		fmt.Fprintf(w, "%s\t%s\n", lvl.Price, lvl.Size)
	}

	return w.Flush()
}
