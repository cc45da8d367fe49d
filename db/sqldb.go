package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/log/zapadapter"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mempush/mempush/log"
)

// NewSQLDB creates a new SQL DB connection pool
func NewSQLDB(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.MaxConns))
	if err != nil {
		log.Errorf("unable to parse DB config, error: %v", err)
		return nil, err
	}

	if cfg.EnableLog {
		zapLogger, _, err := log.NewLogger(log.Config{Environment: log.EnvironmentDevelopment, Level: "debug", Outputs: []string{"stderr"}})
		if err != nil {
			return nil, err
		}
		config.ConnConfig.Logger = zapadapter.NewLogger(zapLogger.Desugar())
	}

	conn, err := pgxpool.ConnectConfig(context.Background(), config)
	if err != nil {
		log.Errorf("unable to connect to the database, error: %v", err)
		return nil, err
	}

	return conn, nil
}
