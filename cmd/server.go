package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user-service/internal/api/router"
	"user-service/internal/app"
	"user-service/internal/config"
	"user-service/internal/infrastructure/events"
	"user-service/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	port          string
	serverBackend string
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server exposing the user API under /api/users.
The persistence backend and event publisher are taken from configuration;
use --backend memory to run without a database.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVarP(&port, "port", "p", "", "Port for the server to listen on (overrides server.port)")
	serverCmd.Flags().StringVar(&serverBackend, "backend", "", "Persistence backend: gorm, sqlx or memory (overrides database.backend)")
}

func startServer() {
	cfg := config.Get()

	if port != "" {
		cfg.Server.Port = port
	}
	if serverBackend != "" {
		cfg.Database.Backend = serverBackend
	}

	application, err := app.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application: %v", err)
	}
	defer application.Close()

	r := router.NewRouter(router.Dependencies{
		UserService:  application.UserService,
		HealthChecks: application.HealthChecks,
	})

	srv := &http.Server{
		Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:        r,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Starting %s on %s", cfg.App.Name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	stats := closeAndReport(application)
	logger.Info("Event stats: enqueued=%d published=%d failed=%d dropped=%d",
		stats.Enqueued, stats.Published, stats.Failed, stats.Dropped)

	logger.Info("Server exited")
}

// closeAndReport releases the application and returns the event counters.
// Close drains the dispatcher, so the counters are final.
func closeAndReport(application *app.App) events.Stats {
	application.Close()
	return application.Dispatcher.Stats()
}
