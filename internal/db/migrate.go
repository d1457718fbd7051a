package db

import (
	"database/sql"
	"strings"

	"github.com/Leen2210/Chatbot-Samator/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending goose migrations from the provided directory.
func RunMigrations(cfg *config.Config) error {
	dir := strings.TrimSpace(cfg.MigrationsDir)
	if dir == "" {
		return nil
	}

	conn, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.Up(conn, dir)
}
