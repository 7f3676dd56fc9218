package database

import (
	"fmt"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"textile-backend/internal/config"
	"textile-backend/internal/models"
)

const (
	embeddedUser     = "postgres"
	embeddedPassword = "postgres"
	embeddedDatabase = "textile"
)

// DB wraps gorm.DB and the embedded PostgreSQL process when one was started.
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
	log      *zap.Logger
}

// Connect opens the configured database. With DB_EMBEDDED set a local
// PostgreSQL is started first and DATABASE_DSN is ignored.
func Connect(cfg *config.Config, log *zap.Logger) (*DB, error) {
	dsn := cfg.DatabaseDSN

	var embedded *embeddedpostgres.EmbeddedPostgres
	if cfg.Embedded.Enabled {
		log.Info("starting embedded PostgreSQL",
			zap.Uint32("port", cfg.Embedded.Port),
			zap.String("data", cfg.Embedded.DataDir))

		embedded = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(cfg.Embedded.DataDir).
			Port(cfg.Embedded.Port).
			Database(embeddedDatabase).
			Username(embeddedUser).
			Password(embeddedPassword))
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}
		dsn = EmbeddedDSN(cfg.Embedded.Port)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("database connection established", zap.Bool("embedded", embedded != nil))
	return &DB{DB: db, embedded: embedded, log: log}, nil
}

// EmbeddedDSN is the connection string of the embedded instance.
func EmbeddedDSN(port uint32) string {
	return fmt.Sprintf("host=localhost port=%d user=%s password=%s dbname=%s sslmode=disable",
		port, embeddedUser, embeddedPassword, embeddedDatabase)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	}
	return logger.Silent
}

// Migrate creates or updates the schema.
func (db *DB) Migrate() error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ProductionOrder{},
		&models.Article{},
		&models.ArticleLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	db.log.Info("migration complete")
	return nil
}

// Close shuts down the connection pool and the embedded process.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if db.embedded != nil {
		db.log.Info("stopping embedded PostgreSQL")
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}
