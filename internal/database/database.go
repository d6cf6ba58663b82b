package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"chikota/internal/config"
	"chikota/internal/models"
	"chikota/internal/utils"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Service interface {
	Health() map[string]string
	DB() *bun.DB
	Close() error
}

type service struct {
	db     *bun.DB
	driver string
	stop   chan struct{}
}

// New opens the configured database, installs the query hook and creates any missing tables.
func New(cfg config.DatabaseConfig) (Service, error) {
	dsn := cfg.URL
	if cfg.Driver == DriverSQLite {
		dsn = withForeignKeys(dsn)
	}

	sqldb, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	var db *bun.DB
	switch cfg.Driver {
	case DriverPostgres:
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		// A shared in-memory database only lives as long as one connection holds it.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		sqldb.Close()
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db.RegisterModel((*models.BookmarkTag)(nil))
	db.AddQueryHook(&queryLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &service{db: db, driver: cfg.Driver, stop: make(chan struct{})}
	go s.collectPoolStats(15 * time.Second)

	log.Info().Str("driver", cfg.Driver).Msg("Connected to database")
	return s, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"status":  "down",
			"message": "db down",
			"error":   err.Error(),
		}
	}

	stats := s.db.Stats()
	return map[string]string{
		"status":           "up",
		"message":          "It's healthy",
		"open_connections": strconv.Itoa(stats.OpenConnections),
		"in_use":           strconv.Itoa(stats.InUse),
		"idle":             strconv.Itoa(stats.Idle),
	}
}

func (s *service) DB() *bun.DB {
	return s.db
}

func (s *service) Close() error {
	close(s.stop)
	log.Info().Str("driver", s.driver).Msg("Disconnected from database")
	return s.db.Close()
}

func (s *service) collectPoolStats(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.recordPoolStats()
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

func (s *service) recordPoolStats() {
	stats := s.db.Stats()
	utils.DBConnectionsOpen.WithLabelValues(s.driver).Set(float64(stats.OpenConnections))
	utils.DBConnectionsInUse.WithLabelValues(s.driver).Set(float64(stats.InUse))
	utils.DBConnectionsIdle.WithLabelValues(s.driver).Set(float64(stats.Idle))
}

// withForeignKeys turns on SQLite foreign key enforcement, which the link table cascades rely on.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
