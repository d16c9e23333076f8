package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cbrunnkvist/nettest/internal/metrics"
	"github.com/cbrunnkvist/nettest/internal/probe"
	"github.com/cbrunnkvist/nettest/internal/report"
	"github.com/cbrunnkvist/nettest/internal/transport"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

var version = "0.1.0"

// Exit codes
const (
	exitOK          = 0
	exitRuntime     = 1
	exitConfig      = 2
	exitInterrupted = 130
)

const (
	defaultLogDir    = "results"
	logFileTimeFmt   = "2006-01-02_15-04-05"
	logFilePrefix    = "nettest_benchmark_"
	logFileSuffix    = ".txt"
	defaultMode      = "receiver"
	defaultFormat    = "plain"
	echoToSourcePeer = "-"
)

// Config holds all command-line configuration
type Config struct {
	Probe probe.Config

	// Output
	Format      string
	LogDir      string
	MetricsAddr string
	Debug       bool

	// Misc
	Preset      string
	Help        bool
	Version     bool
	ListPresets bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(exitOK)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'nettest --help' for usage.")
		os.Exit(exitConfig)
	}

	if cfg.Version {
		fmt.Printf("nettest %s\n", version)
		os.Exit(exitOK)
	}

	if cfg.ListPresets {
		printPresets(os.Stdout)
		os.Exit(exitOK)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("nettest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.SortFlags = false // Preserve definition order in help

	mode := fs.StringP("mode", "m", defaultMode, "Role: receiver|sender (aliases server|client, 0|1)")
	packetLength := fs.IntP("packet-length", "l", probe.DefaultPacketLength, "Datagram length in bytes, header included")
	count := fs.Uint64P("count", "c", 0, "Stop after this many packets (sender)")
	duration := fs.StringP("duration", "d", "", "Stop after this long (sender, default 20s)")
	pps := fs.Float64("pps", 0, "Packets per second (0 = as fast as possible)")
	burst := fs.Int("burst", 0, "Token bucket burst in packets (0 = evenly spaced)")
	randomPayload := fs.Bool("random-payload", false, "Fill payload with random bytes instead of zeros")
	seed := fs.Int64("seed", 0, "Random seed for payload (0=random)")
	handshakeTimeout := fs.String("handshake-timeout", "", "Give up if the handshake takes longer (default: wait forever)")
	idleTimeout := fs.String("idle-timeout", "", "Receiver: end reception after this much silence")
	tos := fs.Int("tos", 0, "IP TOS / traffic class byte for outgoing datagrams")
	fs.StringVar(&cfg.Format, "format", defaultFormat, "Interval line format: plain|bracket")
	fs.StringVar(&cfg.LogDir, "log-dir", defaultLogDir, "Receiver: directory for the per-run results log (empty disables)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	fs.StringVarP(&cfg.Preset, "preset", "P", "", "Test preset (see below)")
	fs.BoolVar(&cfg.Debug, "debug", false, "Verbose diagnostics on stderr")
	fs.BoolVarP(&cfg.Help, "help", "h", false, "Show help")
	fs.BoolVarP(&cfg.Version, "version", "v", false, "Show version")
	fs.BoolVarP(&cfg.ListPresets, "list-presets", "L", false, "List available presets")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "nettest - UDP throughput and ordering probe")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "A sender floods a receiver with sequence-numbered datagrams after an")
		fmt.Fprintln(os.Stderr, "Init/echo handshake; the receiver reports per-second throughput, loss")
		fmt.Fprintln(os.Stderr, "of ordering and duplicates.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: nettest [flags] <local-addr> <peer-addr>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  nettest -m receiver 0.0.0.0:1797 -")
		fmt.Fprintln(os.Stderr, "  nettest -m sender -l 1200 --pps 1000 -d 10s 0.0.0.0:1798 10.0.0.2:1797")
		fmt.Fprintln(os.Stderr, "  nettest -m sender --preset thesis :1798 10.0.0.2:1797")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "A receiver peer of '-' echoes the handshake back to whoever sent Init.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Presets:")
		printPresets(os.Stderr)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Help {
		fs.Usage()
		return cfg, flag.ErrHelp
	}
	if cfg.Version || cfg.ListPresets {
		return cfg, nil
	}

	role, err := probe.ParseRole(*mode)
	if err != nil {
		return nil, err
	}
	cfg.Probe.Role = role

	// Apply preset first (can be overridden by explicit flags)
	if cfg.Preset != "" {
		p, ok := presets[cfg.Preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s", cfg.Preset)
		}
		cfg.Probe.PacketLength = p.PacketLength
		cfg.Probe.Duration = p.Duration
		cfg.Probe.Count = p.Count
		cfg.Probe.Rate = p.Rate
		cfg.Probe.Burst = p.Burst
	}

	if cfg.Preset == "" || fs.Changed("packet-length") {
		cfg.Probe.PacketLength = *packetLength
	}
	if fs.Changed("count") {
		cfg.Probe.Count = *count
		if !fs.Changed("duration") {
			cfg.Probe.Duration = 0
		}
	}
	if fs.Changed("duration") && !fs.Changed("count") {
		cfg.Probe.Count = 0
	}
	if fs.Changed("pps") {
		cfg.Probe.Rate = *pps
	}
	if fs.Changed("burst") {
		cfg.Probe.Burst = *burst
	}
	cfg.Probe.RandomPayload = *randomPayload
	cfg.Probe.Seed = *seed
	cfg.Probe.TOS = *tos

	// Parse duration flags
	for _, d := range []struct {
		value    string
		flagName string
		dst      *time.Duration
	}{
		{*duration, "duration", &cfg.Probe.Duration},
		{*handshakeTimeout, "handshake-timeout", &cfg.Probe.HandshakeTimeout},
		{*idleTimeout, "idle-timeout", &cfg.Probe.IdleTimeout},
	} {
		if err := parseDuration(d.value, d.flagName, d.dst); err != nil {
			return nil, err
		}
	}

	// Positional endpoints; a receiver may omit its peer
	switch rest := fs.Args(); {
	case len(rest) == 2:
		cfg.Probe.Local, cfg.Probe.Peer = rest[0], rest[1]
	case len(rest) == 1 && role == probe.RoleReceiver:
		cfg.Probe.Local, cfg.Probe.Peer = rest[0], echoToSourcePeer
	default:
		return nil, fmt.Errorf("expected <local-addr> <peer-addr>, got %d arguments", len(rest))
	}

	return cfg, nil
}

// parseDuration parses a duration flag value into dst if non-empty.
// Returns an error with the flag name if parsing fails.
func parseDuration(s string, flagName string, dst *time.Duration) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", flagName, err)
	}
	*dst = d
	return nil
}

// newLogger builds the diagnostics logger. Report lines never go through it.
func newLogger(w io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// terminalWidth returns the width of the terminal on fd, or the default rule
// width when fd is not a terminal.
func terminalWidth(fd int) int {
	if !term.IsTerminal(fd) {
		return report.DefaultRuleWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return report.DefaultRuleWidth
	}
	return w
}

// openResultsLog creates dir if needed and opens a fresh per-run log in it.
func openResultsLog(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, logFilePrefix+now.Format(logFileTimeFmt)+logFileSuffix)
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, probe.ErrConfiguration):
		return exitConfig
	case errors.Is(err, transport.ErrCancelled):
		return exitInterrupted
	}
	return exitRuntime
}

func run(ctx context.Context, cfg *Config, stdout, stderr io.Writer) int {
	logger := newLogger(stderr, cfg.Debug)

	if err := cfg.Probe.Validate(); err != nil {
		logger.WithError(err).Error("invalid configuration")
		return exitConfig
	}
	style, err := report.ParseStyle(cfg.Format)
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return exitConfig
	}
	peer, err := transport.ResolvePeer(cfg.Probe.Peer)
	if err != nil {
		logger.WithError(err).Errorf("cannot resolve peer %q", cfg.Probe.Peer)
		return exitConfig
	}

	log := logger.WithFields(logrus.Fields{
		"role":  cfg.Probe.Role.String(),
		"local": cfg.Probe.Local,
		"peer":  cfg.Probe.Peer,
	})

	conn, err := transport.Listen(ctx, cfg.Probe.Local, transport.Options{TOS: cfg.Probe.TOS})
	if err != nil {
		log.WithError(err).Error("cannot open endpoint")
		return exitRuntime
	}
	defer conn.Close()
	log.Debugf("bound %v", conn.LocalAddr())

	// Report lines go to stdout and, for the receiver, to the results log
	out := stdout
	if cfg.Probe.Role == probe.RoleReceiver && cfg.LogDir != "" {
		f, err := openResultsLog(cfg.LogDir, time.Now())
		if err != nil {
			log.WithError(err).Warn("results log disabled")
		} else {
			defer f.Close()
			log.Infof("writing results to %s", f.Name())
			out = io.MultiWriter(stdout, f)
		}
	}
	width := report.DefaultRuleWidth
	if f, ok := stdout.(*os.File); ok {
		width = terminalWidth(int(f.Fd()))
	}
	rep := report.NewReporter(out, style, width)

	var obs probe.Observer
	if cfg.MetricsAddr != "" {
		collector := metrics.New(cfg.Probe.Role)
		if _, err := collector.Serve(ctx, cfg.MetricsAddr, log); err != nil {
			log.WithError(err).Error("cannot start metrics server")
			return exitRuntime
		}
		obs = collector
	}

	sess, err := probe.Establish(ctx, conn, cfg.Probe, peer, log)
	if err != nil {
		log.WithError(err).Error("handshake failed")
		return exitCode(err)
	}

	log.Debugf("session established at %s", sess.Started().Format(time.RFC3339Nano))

	opts := probe.Options{Reporter: rep, Observer: obs, Logger: log}
	if sess.Role() == probe.RoleSender {
		_, err = probe.NewSender(sess, opts).Run(ctx)
	} else {
		_, err = probe.NewReceiver(sess, opts).Run(ctx)
	}

	if werr := rep.Err(); werr != nil {
		log.WithError(werr).Warn("report output incomplete")
	}
	if err != nil && !errors.Is(err, transport.ErrCancelled) {
		log.WithError(err).Error("run failed")
	}
	return exitCode(err)
}
