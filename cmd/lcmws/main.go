// Command lcmws bridges an LCM bus to WebSocket clients: it subscribes
// to a channel pattern, decodes messages against a type registry, and
// fans out JSON, JPEG, or Dial-hybrid frames while publishing live
// per-channel telemetry on the reserved LWS_LCM_SPY channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mbari-org/lcm-websocket-server/internal/buildinfo"
	"github.com/mbari-org/lcm-websocket-server/internal/config"
	"github.com/mbari-org/lcm-websocket-server/internal/handler"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmbus"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes"
	"github.com/mbari-org/lcm-websocket-server/internal/lcmtypes/stdlcm"
	"github.com/mbari-org/lcm-websocket-server/internal/republisher"
	"github.com/mbari-org/lcm-websocket-server/internal/spy"
	"github.com/mbari-org/lcm-websocket-server/internal/wsserver"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	host := flag.String("host", "", "listen host (default localhost or config value)")
	port := flag.Int("port", 0, "listen port (default 8765 or config value)")
	channel := flag.String("channel", "", "default channel regex for clients that request none")
	handlerName := flag.String("handler", "", "frame handler: json, jpeg, or dial")
	scale := flag.Float64("scale", 0, "image downscale factor for jpeg/dial handlers")
	quality := flag.Int("quality", 0, "jpeg quality 1-100 for jpeg/dial handlers")
	busURL := flag.String("bus", "", "LCM UDP multicast provider URL")
	verbosity := flag.Int("v", 0, "verbosity level (0=info,1=debug,2=trace)")
	flag.Parse()

	logger := newLogger(*verbosity)

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "version":
		fmt.Println(buildinfo.String())
		for k, v := range buildinfo.BuildInfo() {
			fmt.Printf("  %-12s %s\n", k+":", v)
		}
	case "serve":
		packages := flag.Args()[1:]
		runServe(logger, serveFlags{
			configPath: *configPath,
			host:       *host,
			port:       *port,
			channel:    *channel,
			handler:    *handlerName,
			scale:      *scale,
			quality:    *quality,
			busURL:     *busURL,
			packages:   packages,
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", flag.Arg(0))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "lcmws - LCM-to-WebSocket bridge")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  serve [package...]   Run the bridge")
	fmt.Fprintln(os.Stderr, "  version              Show version")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func newLogger(verbosity int) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbosity >= 2:
		level = config.LevelTrace
	case verbosity == 1:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

type serveFlags struct {
	configPath string
	host       string
	port       int
	channel    string
	handler    string
	scale      float64
	quality    int
	busURL     string
	packages   []string
}

// runServe wires every component together: registry discovery,
// lcmbus connection, Republisher, Spy Collector, and the WebSocket
// server, then blocks until a termination signal arrives.
func runServe(logger *slog.Logger, f serveFlags) {
	cfg := config.Default()
	if path, err := config.FindConfig(f.configPath); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			logger.Error("config: failed to load", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = loaded
		logger.Info("config: loaded", "path", path)
	} else if f.configPath != "" {
		logger.Error("config: explicit config file not found", "path", f.configPath, "error", err)
		os.Exit(1)
	}

	applyFlagOverrides(cfg, f)

	registry := lcmtypes.NewRegistry()
	packages := cfg.Serve.Packages
	n := registry.Discover(packages...)
	// channel_stats types are always available regardless of which
	// packages the operator asked for, mirroring the source app's fixed
	// wiring order: discover(packages) -> register channel_stats types.
	registry.Discover("spy")
	if n == 0 {
		logger.Error("registry: no LCM types discovered", "packages", packages)
		os.Exit(1)
	}
	logger.Info("registry: types discovered", "count", n, "packages", packages)

	conn, err := lcmbus.Listen(cfg.Serve.BusURL)
	if err != nil {
		logger.Error("lcmbus: failed to connect", "bus_url", cfg.Serve.BusURL, "error", err)
		os.Exit(1)
	}

	rep := republisher.New(conn, logger)
	rep.Start()
	// Stop is called on every shutdown path below, unconditionally —
	// the rewrite's resolution of the upstream open question about
	// leaving the Republisher running past server shutdown.
	defer rep.Stop()

	spyInterval := time.Duration(cfg.Serve.SpyIntervalMS) * time.Millisecond
	collector := spy.New(registry, rep, spyInterval, logger)
	collector.Start()
	defer collector.Stop()

	h, err := buildHandler(cfg, registry, logger)
	if err != nil {
		logger.Error("handler: failed to construct", "error", err)
		collector.Stop()
		rep.Stop()
		os.Exit(1)
	}

	server := wsserver.New(rep, h, cfg.Serve.MailboxSize, cfg.Serve.Channel, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("lcmws: starting", "handler", cfg.Serve.Handler, "host", cfg.Serve.Host, "port", cfg.Serve.Port)
	if err := server.ListenAndServe(ctx, cfg.Serve.Host, cfg.Serve.Port); err != nil {
		logger.Error("wsserver: exited with error", "error", err)
		collector.Stop()
		rep.Stop()
		os.Exit(1)
	}
	logger.Info("lcmws: shutdown complete")
}

func applyFlagOverrides(cfg *config.Config, f serveFlags) {
	if f.host != "" {
		cfg.Serve.Host = f.host
	}
	if f.port != 0 {
		cfg.Serve.Port = f.port
	}
	if f.channel != "" {
		cfg.Serve.Channel = f.channel
	}
	if f.handler != "" {
		cfg.Serve.Handler = f.handler
	}
	if f.scale != 0 {
		cfg.Serve.Scale = f.scale
	}
	if f.quality != 0 {
		cfg.Serve.Quality = f.quality
	}
	if f.busURL != "" {
		cfg.Serve.BusURL = f.busURL
	}
	if len(f.packages) > 0 {
		cfg.Serve.Packages = splitPackages(f.packages)
	}
	if cfg.Serve.Host == "" {
		cfg.Serve.Host = "localhost"
	}
}

func splitPackages(args []string) []string {
	var out []string
	for _, a := range args {
		for _, p := range strings.Split(a, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func buildHandler(cfg *config.Config, registry *lcmtypes.Registry, logger *slog.Logger) (handler.Handler, error) {
	switch cfg.Serve.Handler {
	case "json":
		return handler.NewJSONHandler(registry, logger), nil
	case "jpeg":
		return handler.NewJPEGHandler(cfg.Serve.Scale, cfg.Serve.Quality, logger), nil
	case "dial":
		jsonH := handler.NewJSONHandler(registry, logger)
		jpegH := handler.NewJPEGHandler(cfg.Serve.Scale, cfg.Serve.Quality, logger)
		return handler.NewDialHandler(jpegH, jsonH, stdlcm.ImageTFingerprint, logger), nil
	default:
		return nil, fmt.Errorf("unknown handler %q", cfg.Serve.Handler)
	}
}
