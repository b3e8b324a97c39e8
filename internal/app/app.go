// Package app wires configuration into a ready user service.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"user-service/internal/api/handlers"
	"user-service/internal/config"
	"user-service/internal/domain/user"
	"user-service/internal/infrastructure/database"
	"user-service/internal/infrastructure/events"
	"user-service/internal/infrastructure/repository"
	"user-service/internal/service"
	"user-service/pkg/logger"
)

// App holds the constructed collaborators and knows how to release them.
type App struct {
	UserService  user.UserService
	Repository   user.UserRepository
	Dispatcher   *events.Dispatcher
	HealthChecks map[string]handlers.Checker

	closers []func() error
}

// New builds the repository selected by cfg.Database.Backend, the event
// dispatcher selected by cfg.Events.Publisher, and the user service on top.
func New(cfg *config.Config) (*App, error) {
	a := &App{HealthChecks: map[string]handlers.Checker{}}

	repo, err := a.buildRepository(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repository = repo

	dispatcher, err := events.NewDispatcherFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create event dispatcher: %w", err)
	}
	a.Dispatcher = dispatcher
	a.closers = append(a.closers, func() error {
		dispatcher.Stop()
		return nil
	})
	if strings.EqualFold(cfg.Events.Publisher, "redis") {
		a.HealthChecks["events"] = dispatcher.HealthCheck
	}
	logger.Info("Using %s event publisher", publisherName(cfg))

	a.UserService = service.NewUserService(repo, dispatcher)
	return a, nil
}

// Close stops the dispatcher and closes connections, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource: %v", err)
		}
	}
	a.closers = nil
}

func (a *App) buildRepository(cfg *config.Config) (user.UserRepository, error) {
	dbConfig := DatabaseConfig(cfg)

	switch strings.ToLower(cfg.Database.Backend) {
	case "memory":
		logger.Warn("Using in-memory user repository; data is lost on exit")
		return repository.NewMemoryUserRepository(), nil

	case "sqlx":
		if cfg.Database.AutoMigrate {
			if err := migrate(dbConfig); err != nil {
				return nil, err
			}
		}
		db, err := database.NewSqlxConnection(dbConfig)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.HealthChecks["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		logger.Info("Using sqlx user repository")
		return repository.NewSqlxUserRepository(db), nil

	case "", "gorm":
		db, err := database.NewConnection(dbConfig)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return database.Close(db) })
		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(db); err != nil {
				return nil, err
			}
		}
		a.HealthChecks["database"] = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
		logger.Info("Using gorm user repository")
		return repository.NewGormUserRepository(db), nil

	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}

// DatabaseConfig maps the database config section onto a connection config.
func DatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.Username,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		LogSQL:          cfg.Database.LogSQL,
	}
}

// migrate runs the SQL migrations over a short-lived gorm connection.
func migrate(dbConfig database.Config) error {
	db, err := database.NewConnection(dbConfig)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return database.RunMigrations(db)
}

func publisherName(cfg *config.Config) string {
	if cfg.Events.Publisher == "" {
		return "log"
	}
	return cfg.Events.Publisher
}
