package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focus-server/archive"
	"focus-server/audio"
	"focus-server/config"
	"focus-server/handlers"
	"focus-server/logging"
	"focus-server/middleware"
	"focus-server/models"
	"focus-server/notify"
	"focus-server/nudge"
	"focus-server/scheduler"
	"focus-server/store"
	"focus-server/tracking"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

var (
	configFile string
	logger     *zap.Logger
	logLevel   zap.AtomicLevel
	cfg        *config.Config
	loader     *config.Loader
)

var rootCmd = &cobra.Command{
	Use:   "focus-server",
	Short: "Local backend for the Focus browser extension",
	Long: `focus-server owns the Focus extension's state: the site block list, visit
and active-time tracking, one-shot reminders, periodic wellbeing nudges and the
background-music playlist. Extension contexts talk to it over HTTP and a websocket.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		loader = config.NewLoader()
		var err error
		cfg, err = loader.Load(configFile)
		if err != nil {
			return err
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
		}

		logger, logLevel, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("focus-server", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (YAML)")
	rootCmd.AddCommand(serveCmd, statsCmd, remindersCmd, archiveCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openStore() (*store.Store, error) {
	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func runServe(ctx context.Context) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := seedSettings(s); err != nil {
		return err
	}
	if cfg.Auth.Passphrase != "" {
		err = s.SetPassphrase(cfg.Auth.Passphrase)
	} else {
		err = s.ClearPassphrase()
	}
	if err != nil {
		return fmt.Errorf("store passphrase: %w", err)
	}

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	hub := handlers.NewHub(auth, logger)
	notifier := notify.WithFallback(hub, notify.NewLog(logger))

	sched := scheduler.New(s, notifier, logger,
		scheduler.WithMaxDelay(cfg.Scheduler.MaxDelay),
		scheduler.WithOnFired(func(r models.Reminder) {
			hub.BroadcastAll(models.WSMessage{Type: models.WSTypeReminder, Payload: r})
		}))
	defer sched.Stop()

	nudger := nudge.New(s.LoadSettings, notifier, logger)
	defer nudger.Stop()

	tracker := tracking.NewAggregator(s, logger, time.Now)
	player := audio.NewPlayer(audio.NewRemote(hub), logger)
	settings := handlers.NewSettingsService(s, nudger, hub, logger)

	dispatcher := handlers.NewDispatcher(handlers.DispatcherConfig{
		Store:            s,
		Settings:         settings,
		Scheduler:        sched,
		Tracker:          tracker,
		Nudger:           nudger,
		Player:           player,
		RedirectTemplate: cfg.Blocking.RedirectTemplate,
		Logger:           logger,
	})
	hub.SetDispatcher(dispatcher.Dispatch)
	hub.OnAudioEnded(dispatcher.AudioEnded)
	hub.OnClientSeen(func(clientID string) {
		if err := s.TouchClient(clientID); err != nil {
			logger.Debug("touch client failed", zap.String("client_id", clientID), zap.Error(err))
		}
	})

	musicHandler, err := handlers.NewMusicHandler(s, cfg.Server.MusicDir, logger)
	if err != nil {
		return err
	}

	var retention *archive.Retention
	if cfg.Archive.RetainDays > 0 {
		arch, err := archive.Open(cfg.Archive.Dir)
		if err != nil {
			return err
		}
		retention = archive.NewRetention(s, arch, cfg.Archive.RetainDays, logger)
	}

	mux := http.NewServeMux()
	routes(mux, routeSet{
		auth:      auth,
		hub:       hub,
		login:     handlers.NewAuthHandler(s, auth, logger),
		blocked:   handlers.NewBlockedHandler(),
		reminders: handlers.NewReminderHandler(s, sched, logger),
		settings:  handlers.NewSettingsHandler(settings, logger),
		tracking:  handlers.NewTrackingHandler(tracker, logger),
		playlist:  handlers.NewPlaylistHandler(s, logger),
		music:     musicHandler,
		actions:   dispatcher,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		if err := logging.SetLevel(logLevel, next.Logging.Level); err != nil {
			logger.Warn("config reload: bad log level", zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("log_level", next.Logging.Level))
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(ctx) })

	g.Go(func() error {
		n, err := sched.Restore(ctx)
		if err != nil {
			logger.Error("restore reminders failed", zap.Error(err))
			return nil
		}
		logger.Info("scheduler ready", zap.Int("reminders", n))
		return nil
	})

	g.Go(func() error {
		if err := nudger.Reconfigure(); err != nil {
			logger.Error("nudge setup failed", zap.Error(err))
		}
		return nil
	})

	if retention != nil {
		g.Go(func() error { return retention.Run(ctx, cfg.Archive.Interval) })
	}

	g.Go(func() error {
		logger.Info("focus server starting", zap.String("addr", cfg.Server.Addr), zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedSettings writes first-run defaults. The configured match policy is only
// the initial value; later changes go through the settings API.
func seedSettings(s *store.Store) error {
	var policy string
	err := s.GetSetting(models.SettingBlockMatchPolicy, &policy)
	if errors.Is(err, store.ErrNotFound) {
		err = s.SetSetting(models.SettingBlockMatchPolicy, cfg.Blocking.MatchPolicy)
	}
	if err != nil {
		return fmt.Errorf("seed match policy: %w", err)
	}
	if err := s.EnsureDefaultSettings(); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

type routeSet struct {
	auth      *middleware.Authenticator
	hub       *handlers.Hub
	login     *handlers.AuthHandler
	blocked   *handlers.BlockedHandler
	reminders *handlers.ReminderHandler
	settings  *handlers.SettingsHandler
	tracking  *handlers.TrackingHandler
	playlist  *handlers.PlaylistHandler
	music     *handlers.MusicHandler
	actions   *handlers.Dispatcher
}

func routes(mux *http.ServeMux, h routeSet) {
	withAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return h.auth.Middleware(next).ServeHTTP
	}

	// Public routes (no auth required)
	mux.HandleFunc("POST /api/auth/login", h.login.Login)
	mux.HandleFunc("GET /api/ws", h.hub.HandleWebSocket)
	mux.HandleFunc("GET /blocked", h.blocked.Info)
	mux.HandleFunc("GET /api/music/{filename}", h.music.Serve)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Reminders
	mux.HandleFunc("GET /api/reminders", withAuth(h.reminders.List))
	mux.HandleFunc("POST /api/reminders", withAuth(h.reminders.Create))
	mux.HandleFunc("DELETE /api/reminders/{id}", withAuth(h.reminders.Delete))

	// Settings
	mux.HandleFunc("GET /api/settings", withAuth(h.settings.Get))
	mux.HandleFunc("PUT /api/settings", withAuth(h.settings.Update))
	mux.HandleFunc("POST /api/settings/blocked-sites", withAuth(h.settings.AddBlockedSite))
	mux.HandleFunc("DELETE /api/settings/blocked-sites/{site}", withAuth(h.settings.RemoveBlockedSite))

	// Tracking
	mux.HandleFunc("GET /api/tracking", withAuth(h.tracking.Data))
	mux.HandleFunc("POST /api/tracking/active-time", withAuth(h.tracking.ActiveTime))
	mux.HandleFunc("GET /api/analytics", withAuth(h.tracking.Analytics))

	// Playlist
	mux.HandleFunc("GET /api/playlist", withAuth(h.playlist.List))
	mux.HandleFunc("POST /api/playlist", withAuth(h.playlist.Add))
	mux.HandleFunc("POST /api/playlist/upload", withAuth(h.music.Upload))
	mux.HandleFunc("DELETE /api/playlist/{id}", withAuth(h.playlist.Delete))

	// Boundary actions
	mux.HandleFunc("POST /api/actions", withAuth(h.actions.Handle))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
