package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opswarden/warden/internal/liaison"
	"github.com/opswarden/warden/internal/logging"
	"github.com/opswarden/warden/internal/protocol"
	"github.com/opswarden/warden/internal/statusapi"
	"github.com/opswarden/warden/internal/supervisor"
	"github.com/opswarden/warden/internal/wardcfg"
)

var runForeground bool

// runCmd is the hidden subcommand that actually runs the supervisor; the
// root command is expected to be invoked directly as `warden run` rather
// than re-exec'd into the background, grounded on the teacher's
// daemonCmd but without its auto-respawn behavior — this supervisor is
// meant to be run under whatever process manager the operator already
// uses (systemd, a container runtime, etc).
var runCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run the supervisor (internal — normally started by a process manager)",
	Hidden: true,
	RunE:   runSupervisor,
}

func init() {
	runCmd.Flags().BoolVar(&runForeground, "foreground", false, "also log to stderr")
	rootCmd.AddCommand(runCmd)
}

func runSupervisor(cmd *cobra.Command, args []string) error {
	syscall.Umask(0077)

	cfgPath, err := wardcfg.ConfigFilePath()
	if err != nil {
		return err
	}
	cfg, err := wardcfg.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logDir, err := wardcfg.LogDir()
	if err != nil {
		return err
	}
	if err := wardcfg.EnsureDir(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warden: cannot create log directory: %v\n", err)
	}

	logger, logCleanup, logErr := logging.Setup(logDir, slog.LevelInfo, runForeground)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "warden: cannot set up file logging: %v\n", logErr)
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		logCleanup = func() {}
	}
	defer logCleanup()

	if pidPath, err := wardcfg.PIDFilePath(); err != nil {
		logger.Warn("cannot determine PID file path", "error", err)
	} else if err := wardcfg.AtomicWriteFile(pidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0600); err != nil {
		logger.Warn("failed to write PID file", "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	return wireAndRun(ctx, cfg, logger)
}

// wireAndRun assembles the liaisons, status surface, and supervisor
// exactly as spec.md §2's data-flow diagram describes: channels are
// constructed first and only the endpoint each party needs is handed out,
// so ownership forms a DAG rather than a cycle (spec.md §9's cyclic
// ownership note).
func wireAndRun(ctx context.Context, cfg *wardcfg.Config, logger *slog.Logger) error {
	serverLiaison := liaison.New[protocol.ServerMessage, protocol.ServerMessage](logger, protocol.ParseServerMessage)
	operatorLiaison := liaison.New[protocol.OperatorMessage, protocol.OperatorMessage](logger, protocol.ParseOperatorMessage)

	rawServerIn := make(chan liaison.Inbound[protocol.ServerMessage], 64)
	rawOperatorIn := make(chan liaison.Inbound[protocol.OperatorMessage], 64)
	serverIn := make(chan supervisor.ServerInbound, 64)
	operatorIn := make(chan supervisor.OperatorInbound, 64)
	serverOut := make(chan supervisor.ServerOutbound, 64)
	operatorOut := make(chan supervisor.OperatorOutbound, 64)

	go func() {
		for in := range rawServerIn {
			serverIn <- supervisor.ServerInbound{Msg: in.Msg, Peer: in.Peer}
		}
	}()
	go func() {
		for in := range rawOperatorIn {
			operatorIn <- supervisor.OperatorInbound{Msg: in.Msg, Peer: in.Peer}
		}
	}()
	go func() {
		for out := range serverOut {
			serverLiaison.Send(out.Peer, out.Msg)
		}
	}()
	go func() {
		for out := range operatorOut {
			operatorLiaison.Send(out.Peer, out.Msg)
		}
	}()

	cache := statusapi.NewCache()
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	sp := supervisor.New(cfg, ticker.C, serverIn, operatorIn, serverOut, operatorOut, logger)
	sp.SetSnapshotPublisher(cache.Publish)

	servers, err := startTransports(cfg, logger, serverLiaison, operatorLiaison, rawServerIn, rawOperatorIn, cache)
	if err != nil {
		return err
	}
	defer shutdownServers(servers, logger)

	return sp.Run(ctx)
}

func startTransports(
	cfg *wardcfg.Config,
	logger *slog.Logger,
	serverLiaison *liaison.Liaison[protocol.ServerMessage, protocol.ServerMessage],
	operatorLiaison *liaison.Liaison[protocol.OperatorMessage, protocol.OperatorMessage],
	rawServerIn chan<- liaison.Inbound[protocol.ServerMessage],
	rawOperatorIn chan<- liaison.Inbound[protocol.OperatorMessage],
	cache *statusapi.Cache,
) ([]*http.Server, error) {
	serverAddr, serverPath, err := splitEndpoint(cfg.ServerEndpoint)
	if err != nil {
		return nil, fmt.Errorf("server_endpoint: %w", err)
	}
	operatorAddr, operatorPath, err := splitEndpoint(cfg.OperatorEndpoint)
	if err != nil {
		return nil, fmt.Errorf("operator_endpoint: %w", err)
	}

	serverMux := http.NewServeMux()
	serverMux.HandleFunc(serverPath, func(w http.ResponseWriter, r *http.Request) {
		serverLiaison.HandleConnection(w, r, rawServerIn)
	})

	operatorMux := http.NewServeMux()
	operatorMux.HandleFunc(operatorPath, func(w http.ResponseWriter, r *http.Request) {
		operatorLiaison.HandleConnection(w, r, rawOperatorIn)
	})

	servers := []*http.Server{
		{Addr: serverAddr, Handler: serverMux},
		{Addr: operatorAddr, Handler: operatorMux},
		{Addr: cfg.StatusAddr, Handler: statusapi.NewRouter(cache)},
	}

	for _, srv := range servers {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("transport listener stopped", "addr", srv.Addr, "error", err)
			}
		}()
	}

	return servers, nil
}

func shutdownServers(servers []*http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("transport shutdown error", "addr", srv.Addr, "error", err)
		}
	}
}

func splitEndpoint(endpoint string) (addr, path string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Path == "" {
		return "", "", fmt.Errorf("endpoint %q has no path", endpoint)
	}
	return u.Host, u.Path, nil
}
