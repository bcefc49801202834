package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/jroosing/pbench/internal/config"
	"github.com/jroosing/pbench/internal/control"
	"github.com/jroosing/pbench/internal/dashboard"
	"github.com/jroosing/pbench/internal/endpoint"
	"github.com/jroosing/pbench/internal/helpers"
	"github.com/jroosing/pbench/internal/logging"
	"github.com/jroosing/pbench/internal/shutdown"
	"github.com/jroosing/pbench/internal/store"
)

const defaultControlPort = 7124

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	server        bool
	remoteHost    string
	port          int
	threads       int
	timeoutSecs   float64
	polling       bool
	ipv4          bool
	ipv6          bool
	dashboardAddr string
	dbPath        string
	configPath    string
	jsonLogs      bool
	debug         bool
}

func parseFlags() (cliFlags, error) {
	var f cliFlags
	flag.BoolVar(&f.server, "s", false, "server mode")
	flag.StringVar(&f.remoteHost, "r", "", "client mode, target host")
	flag.IntVar(&f.port, "p", defaultControlPort, "control-plane UDP port")
	flag.IntVar(&f.threads, "n", 1, "worker thread count")
	flag.Float64Var(&f.timeoutSecs, "t", 0, "client timeout in seconds (0 disables)")
	flag.BoolVar(&f.polling, "l", false, "polling mode (busy-loop instead of blocking deadlines)")
	flag.BoolVar(&f.ipv4, "4", false, "force IPv4")
	flag.BoolVar(&f.ipv6, "6", false, "force IPv6")
	flag.StringVar(&f.dashboardAddr, "dashboard", "", "optional monitoring HTTP surface, e.g. 127.0.0.1:8080")
	flag.StringVar(&f.dbPath, "db", "", "optional SQLite run-history file")
	flag.StringVar(&f.configPath, "config", "", "optional YAML config file for dashboard/store/logging settings")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "enable debug logging")
	flag.Parse()

	if f.server == (f.remoteHost != "") {
		return f, errors.New("exactly one of -s or -r HOST must be given")
	}
	if f.threads < 1 {
		return f, errors.New("-n must be at least 1")
	}
	if f.ipv4 && f.ipv6 {
		return f, errors.New("-4 and -6 are mutually exclusive")
	}
	f.port = int(helpers.ClampIntToUint16(f.port))
	f.threads = helpers.ClampInt(f.threads, 1, math.MaxUint16)
	return f, nil
}

func (f cliFlags) family() endpoint.Family {
	switch {
	case f.ipv4:
		return endpoint.V4
	case f.ipv6:
		return endpoint.V6
	default:
		return endpoint.Unspecified
	}
}

func run() error {
	flags, err := parseFlags()
	if err != nil {
		flag.Usage()
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if flags.debug {
		cfg.Logging.Level = "DEBUG"
	}
	if flags.dashboardAddr != "" {
		cfg.Dashboard.Enabled = true
		cfg.Dashboard.Addr = flags.dashboardAddr
	}
	if flags.dbPath != "" {
		cfg.Store.Path = flags.dbPath
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
	})

	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			logger.Warn("failed to open run-history store, continuing without persistence", "err", err)
			st = nil
		} else {
			defer st.Close()
		}
	}

	stop := &shutdown.Flag{}
	stopSignals := stop.NotifyOnSignal()
	defer stopSignals()

	var live atomic.Pointer[dashboard.LiveStats]

	if cfg.Dashboard.Enabled {
		dashSrv := startDashboard(cfg.Dashboard.Addr, logger, st, &live)
		defer shutdownDashboard(dashSrv, logger)
	}

	if flags.server {
		return runServer(flags, logger, st, &live, stop)
	}
	return runClient(flags, logger, st, &live, stop)
}

func runServer(flags cliFlags, logger *slog.Logger, st *store.Store, live *atomic.Pointer[dashboard.LiveStats], stop *shutdown.Flag) error {
	var runID int64
	if st != nil {
		runID, _ = st.BeginRun("server", fmt.Sprintf(":%d", flags.port), flags.threads)
	}

	var lastPackets, lastSeq atomic.Uint64

	srv := &control.Server{
		Logger:  logger,
		Family:  flags.family(),
		Host:    "",
		Port:    flags.port,
		Polling: flags.polling,
		Stop:    stop,
		OnData: func(recvPPS, sentPPS float64, packets, seq uint64) {
			live.Store(&dashboard.LiveStats{
				Role: "server", RecvPPS: recvPPS, SentPPS: sentPPS,
				Packets: packets, LastSeq: seq, Threads: flags.threads, Tracking: true,
			})
			lastPackets.Store(packets)
			lastSeq.Store(seq)
			if st != nil {
				_ = st.RecordSample(runID, recvPPS, sentPPS, packets, seq)
			}
		},
	}

	logger.Info("pbench: server starting", "port", flags.port, "polling", flags.polling)
	err := srv.Run()
	logger.Info("pbench: server stopped")
	if st != nil {
		_ = st.EndRun(runID, lastPackets.Load(), lastSeq.Load())
	}
	return err
}

func runClient(flags cliFlags, logger *slog.Logger, st *store.Store, live *atomic.Pointer[dashboard.LiveStats], stop *shutdown.Flag) error {
	var runID int64
	if st != nil {
		runID, _ = st.BeginRun("client", flags.remoteHost, flags.threads)
	}

	var timeout time.Duration
	if flags.timeoutSecs > 0 {
		timeout = time.Duration(flags.timeoutSecs * float64(time.Second))
	}

	var lastPackets, lastSeq atomic.Uint64

	cli := &control.Client{
		Logger:  logger,
		Family:  flags.family(),
		Host:    flags.remoteHost,
		Port:    flags.port,
		Threads: flags.threads,
		Polling: flags.polling,
		Timeout: timeout,
		Stop:    stop,
		OnSample: func(s control.Sample) {
			live.Store(&dashboard.LiveStats{
				Role: "client", RecvPPS: s.RecvPPS, SentPPS: s.SentPPS,
				Packets: s.Recv, LastSeq: s.LastSeq, Threads: flags.threads, Tracking: true,
			})
			lastPackets.Store(s.Recv)
			lastSeq.Store(s.LastSeq)
			if st != nil {
				_ = st.RecordSample(runID, s.RecvPPS, s.SentPPS, s.Recv, s.LastSeq)
			}
		},
	}

	logger.Info("pbench: client starting", "target", flags.remoteHost, "port", flags.port, "threads", flags.threads)
	err := cli.Run()
	logger.Info("pbench: client stopped")
	if st != nil {
		_ = st.EndRun(runID, lastPackets.Load(), lastSeq.Load())
	}
	return err
}

func startDashboard(addr string, logger *slog.Logger, st *store.Store, live *atomic.Pointer[dashboard.LiveStats]) *dashboard.Server {
	liveFn := func() dashboard.LiveStats {
		p := live.Load()
		if p == nil {
			return dashboard.LiveStats{}
		}
		return *p
	}
	srv := dashboard.New(addr, logger, st, liveFn)
	go func() {
		logger.Info("pbench: dashboard starting", "addr", srv.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pbench: dashboard server error", "err", err)
		}
	}()
	return srv
}

func shutdownDashboard(srv *dashboard.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("pbench: dashboard shutdown error", "err", err)
	}
}
