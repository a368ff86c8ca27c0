package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vspreview/vspreview/internal/api"
	"github.com/vspreview/vspreview/internal/config"
	"github.com/vspreview/vspreview/internal/db"
	"github.com/vspreview/vspreview/internal/logging"
	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/plugins"
	"github.com/vspreview/vspreview/internal/script"
	"github.com/vspreview/vspreview/internal/session"
	"github.com/vspreview/vspreview/internal/store"
	"github.com/vspreview/vspreview/internal/ui"
	"github.com/vspreview/vspreview/internal/watcher"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	scriptPath  string
	args        []string
	frame       *int
	preserveCwd bool
	verbose     bool
	headless    bool
	watch       bool
	port        int
}

func newRootCommand() *cobra.Command {
	var opts options
	var frame int

	root := &cobra.Command{
		Use:          "vspreview <script>",
		Short:        "Preview the outputs of a clip script",
		Version:      config.Version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.scriptPath = args[0]
			if cmd.Flags().Changed("frame") {
				opts.frame = &frame
			}
			if !cmd.Flags().Changed("port") {
				opts.port = 0
			}
			return run(opts)
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().StringArrayVarP(&opts.args, "arg", "a", nil, "Script argument as key=value, repeatable")
	root.Flags().IntVarP(&frame, "frame", "f", 0, "Frame to show first on the current output")
	root.Flags().BoolVar(&opts.preserveCwd, "preserve-cwd", false, "Do not change into the script's directory")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")
	root.Flags().BoolVar(&opts.headless, "headless", false, "Run without the system tray")
	root.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload the script when it changes")
	root.Flags().IntVarP(&opts.port, "port", "p", config.DefaultPort, "API port")

	root.AddCommand(newSessionsCommand(), newForgetCommand())
	return root
}

func run(opts options) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.port != 0 {
		if err := cfg.SetPort(opts.port); err != nil {
			return err
		}
	}
	if opts.verbose {
		cfg.SetLogLevel("debug")
	}
	if opts.headless {
		cfg.SetHeadless(true)
	}

	scriptArgs, err := script.ParseArgs(opts.args)
	if err != nil {
		return err
	}
	scriptPath, err := filepath.Abs(opts.scriptPath)
	if err != nil {
		return fmt.Errorf("invalid script path: %w", err)
	}
	if !opts.preserveCwd {
		if err := os.Chdir(filepath.Dir(scriptPath)); err != nil {
			return fmt.Errorf("failed to change into script directory: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting vspreview", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := store.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	sess, err := session.New(session.Options{
		ScriptPath: scriptPath,
		Args:       scriptArgs,
		Frame:      opts.frame,
		Repo:       repo,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	doctor := plugins.NewCachedDoctor(sess, config.DoctorTTL, logging.WithComponent(logger, "plugins"))
	if caps, err := doctor.Refresh(ctx); err != nil {
		logger.Warn("initial plugin probe failed", "error", err)
	} else if missing := caps.Missing(); len(missing) > 0 {
		for _, ns := range missing {
			logger.Warn("spectrum view unavailable", "missing_plugin", ns, "hint", plugins.Hint(ns))
		}
	}

	st := sess.Status()
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                    VSPREVIEW v%-27s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Script:     %-45s ║\n", truncate(logging.SanitizePath(scriptPath), 45))
	fmt.Printf("║  Outputs:    %-45s ║\n", fmt.Sprintf("%d video, %d audio", st.VideoOutputs, st.AudioOutputs))
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if opts.watch {
		w := watcher.NewPollWatcher(cfg.WatchInterval(), logging.WithComponent(logger, "watcher"))
		w.OnChange(func(path string, event watcher.EventType) {
			if event == watcher.EventDelete {
				return
			}
			if err := sess.Reload(ctx); err != nil {
				logger.Error("reload after change failed", "error", err)
			}
			doctor.Invalidate()
		})
		if err := w.Watch(ctx, scriptPath); err != nil {
			return fmt.Errorf("failed to watch script: %w", err)
		}
		defer w.Stop()
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Session:    sess,
		Repository: repo,
		Doctor:     doctor,
		Logger:     logging.WithComponent(logger, "api"),
		StartTime:  startTime,
		DeviceID:   deviceID,
		Version:    config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
		<-quitCh
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Session: sess,
			Doctor:  doctor,
			Logger:  logging.WithComponent(logger, "tray"),
			OnQuit:  quit,
		})
		go func() {
			<-quitCh
			tray.Quit()
		}()
		tray.Run()
		quit()
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	saveOnExit(shutdownCtx, sess, logger)
	cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// saveOnExit folds spectrum view edits back into the outputs and writes the
// session, so the stored document always holds primary outputs.
func saveOnExit(ctx context.Context, sess *session.Session, logger *slog.Logger) {
	if err := sess.SwitchView(outputs.ViewPrimary, false); err != nil {
		logger.Warn("failed to restore primary view", "error", err)
	}
	if err := sess.Save(ctx); err != nil {
		logger.Error("failed to save session", "error", err)
	}
}

func openStore() (store.Repository, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	database, err := db.New(cfg.DBPath(), logging.NewLogger("error"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store.NewRepository(database.Conn()), func() { database.Close() }, nil
}

func newSessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			sessions, err := repo.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "no saved sessions")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%-14s %s\n", humanize.Time(s.UpdatedAt), logging.SanitizePath(s.ScriptPath))
			}
			return nil
		},
	}
}

func newForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <script>",
		Short: "Delete the saved session of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			repo, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			existing, err := repo.GetSession(cmd.Context(), path)
			if err != nil {
				return err
			}
			if existing == nil {
				return errors.New("no saved session for " + path)
			}
			return repo.DeleteSession(cmd.Context(), path)
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}

func ensureDeviceID(repo store.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, store.ConfigDeviceID)
	if err == nil && existing != "" {
		return existing, nil
	}

	deviceID := store.NewID()
	if err := repo.SetConfig(ctx, store.ConfigDeviceID, deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo store.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, store.ConfigAuthToken)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 16)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, store.ConfigAuthToken, token); err != nil {
		return "", err
	}

	return token, nil
}
