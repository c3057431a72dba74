package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hospital-system/internal/apiclient"
	"hospital-system/internal/config"
	"hospital-system/internal/database"
	"hospital-system/internal/handlers"
	"hospital-system/internal/localstate"
	"hospital-system/internal/logger"
	"hospital-system/internal/middleware"
	"hospital-system/internal/reception"
	"hospital-system/internal/terminal"
	"hospital-system/internal/toast"
	"hospital-system/internal/viacep"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	loginAttempts = 5
	loginWindow   = 15 * time.Minute
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "hospital",
		Short:        "Hospital patient registration and reception",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(receptionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(service string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, service)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func redisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func serveCmd() *cobra.Command {
	var adminPassword string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hospital API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup("hospital-api")
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cfg, log, adminPassword)
		},
	}
	cmd.Flags().StringVar(&adminPassword, "admin-password", "admin123", "password of the default admin account, when it has to be created")
	return cmd
}

func runServer(cfg *config.Config, log *zap.Logger, adminPassword string) error {
	if err := database.InitDB(cfg); err != nil {
		return err
	}
	if err := database.SeedAdmin(database.DB, log, adminPassword); err != nil {
		return err
	}

	var limiter middleware.Limiter = middleware.NewMemoryLimiter(loginAttempts, loginWindow)
	if cfg.RedisURL != "" {
		client, err := redisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		limiter = middleware.NewRedisLimiter(client, "hospital:login:", loginAttempts, loginWindow)
		log.Info("login rate limit backed by redis")
	}

	cep := viacep.NewClient(cfg.ViaCEPURL, log)
	router := handlers.SetupRouter(cfg, log, cep, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.ListenPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.Bool("postgres", cfg.IsPostgres()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func seedCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Migrate the schema and create the default admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup("hospital-seed")
			if err != nil {
				return err
			}
			defer log.Sync()
			if err := database.InitDB(cfg); err != nil {
				return err
			}
			return database.SeedAdmin(database.DB, log, password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "admin123", "admin password")
	return cmd
}

func receptionCmd() *cobra.Command {
	var (
		username    string
		password    string
		sharedState bool
	)
	cmd := &cobra.Command{
		Use:   "reception",
		Short: "Run the patient reception workflow in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup("hospital-reception")
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			in := bufio.NewReader(os.Stdin)
			out := cmd.OutOrStdout()
			if username == "" {
				fmt.Fprint(out, "Usuário: ")
				line, _ := in.ReadString('\n')
				username = strings.TrimSpace(line)
			}
			if password == "" {
				password = os.Getenv("RECEPTION_PASSWORD")
			}

			client := apiclient.New(cfg.Client.APIURL, log)
			if _, err := client.Login(ctx, username, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			store, err := openStore(cfg, sharedState, username)
			if err != nil {
				return err
			}

			view := terminal.NewView(out)
			view.OnRedirect = stop
			toasts := toast.New(toast.WithRenderer(terminal.NewToastPrinter(out)))
			wf := reception.New(client, toasts, view, store,
				reception.WithLogger(log),
				reception.WithDebounce(cfg.Client.SearchDebounce),
				reception.WithLoginRedirect(cfg.Client.LoginRedirect),
			)
			if err := wf.Init(ctx); err != nil && !errors.Is(err, reception.ErrStale) {
				log.Warn("init reception", zap.Error(err))
			}

			shell := terminal.NewShell(wf, toasts, out, client.Logout)
			fmt.Fprintln(out, "Digite ajuda para ver os comandos.")
			return shell.Run(ctx, in)
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default $RECEPTION_PASSWORD)")
	cmd.Flags().BoolVar(&sharedState, "shared-state", false, "keep the selected patient in Redis (REDIS_URL) instead of a local file")
	return cmd
}

func openStore(cfg *config.Config, shared bool, username string) (localstate.Store, error) {
	if shared {
		if cfg.RedisURL == "" {
			return nil, errors.New("--shared-state requires REDIS_URL")
		}
		client, err := redisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return localstate.NewRedisStore(client, "hospital:reception:"+username+":", 12*time.Hour), nil
	}
	store, err := localstate.NewFileStore(cfg.Client.StateDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}
