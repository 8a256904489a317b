package db

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/studiostory/studiostory-backend/internal/platform/envutil"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// Service owns the embedded database connection. SQLite is the default,
// matching the local-first model where the learned store lives next to the
// process; a Postgres DSN switches to a shared server store.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn != "" {
		serviceLog.Info("Opening postgres store")
		gdb, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil
	}

	path := envutil.String("STUDIOSTORY_DB_PATH", "studiostory.db")
	serviceLog.Info("Opening sqlite store", "path", path)
	gdb, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	if path != ":memory:" {
		if err := gdb.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
			serviceLog.Warn("Failed to enable WAL", "error", err)
		}
	}
	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
