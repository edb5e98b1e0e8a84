package gormsource

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// DBConfig describes a database connection.
type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string

	// DSN is the primary (write) connection string.
	DSN string

	// Replicas are read connection strings. Reads are spread across them
	// at random.
	Replicas []string

	// SingularTable disables table name pluralization.
	SingularTable bool

	// LogLevel is silent, error, warn or info. Default silent.
	LogLevel string
}

// Open connects to the database described by cfg.
func Open(cfg DBConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, ErrNoDSN
	}
	primary, err := dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(primary, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: cfg.SingularTable},
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("gormsource: open %s: %w", cfg.Driver, err)
	}

	if len(cfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.Replicas))
		for _, dsn := range cfg.Replicas {
			d, err := dialector(cfg.Driver, dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, d)
		}
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("gormsource: register replicas: %w", err)
		}
	}
	return db, nil
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
}

func logLevel(s string) logger.LogLevel {
	switch s {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}
