// Package database opens Postgres/TimescaleDB connections and defines the
// tables convergence records are stored in.
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/windaep/internal/log"
)

// Client holds the connection to a TimescaleDB database
type Client struct {
	dsn    string
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(dsn string, logger *zap.SugaredLogger) *Client {
	return &Client{
		dsn:    dsn,
		logger: logger,
	}
}

// Connect opens the connection and creates the record tables
func (c *Client) Connect(ctx context.Context) error {
	var err error

	c.DB, err = CreateConnection(c.dsn)
	if err != nil {
		return err
	}

	c.logger.Info("migrating convergence record tables...")
	if err := c.DB.WithContext(ctx).AutoMigrate(&ConvergenceRun{}, &ConvergenceIteration{}); err != nil {
		return fmt.Errorf("migrating record tables: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}
