package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/feanor306/task-app-api/internal/config"
	"github.com/feanor306/task-app-api/internal/migrations"
)

var globalPostgresPool *pgxpool.Pool

func MustConnectPostgres() {
	cfg := config.Global().Postgres
	connURL := postgresConnURL(cfg)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	globalPostgresPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")
}

// MustMigratePostgres applies the embedded goose migrations through the
// pgx stdlib adapter, since goose wants a *sql.DB.
func MustMigratePostgres() {
	cfg := config.Global().Postgres

	db, err := sql.Open("pgx", postgresConnURL(cfg))
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to open migration connection")
		panic(err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.Migrations)
	err = goose.Up(db, ".")
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to run migrations")
		panic(err)
	}
	globalLogger.Info().Msg("applied migrations")
}

func DisconnectPostgres() {
	globalPostgresPool.Close()
	globalLogger.Info().Msg("disconnected from postgres")
}

func postgresConnURL(cfg config.PostgresConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)
}
