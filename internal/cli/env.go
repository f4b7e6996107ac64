package cli

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/roach88/hierframe/internal/engine"
)

// Env holds defaults taken from the environment. Flags given on the command
// line always win.
type Env struct {
	Database  string `env:"HIERFRAME_DB"`
	Workers   int    `env:"HIERFRAME_WORKERS"`
	BatchSize int    `env:"HIERFRAME_BATCH_SIZE"`
	Format    string `env:"HIERFRAME_FORMAT" envDefault:"text"`
}

// ParseEnv loads Env from environment variables.
func ParseEnv(target *Env) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (e Env) workers() int {
	if e.Workers <= 0 {
		return engine.DefaultWorkers
	}
	return e.Workers
}

func (e Env) format() string {
	if e.Format == "" {
		return "text"
	}
	return e.Format
}

// databaseFlag registers --db, defaulting to HIERFRAME_DB.
func databaseFlag(cmd *cobra.Command, target *string, e Env) {
	cmd.Flags().StringVar(target, "db", e.Database, "path to SQLite database (required, or set HIERFRAME_DB)")
}

// requireDatabase stands in for MarkFlagRequired, which would reject a
// database supplied through HIERFRAME_DB.
func requireDatabase(path string) error {
	if path == "" {
		return errors.New(`required flag(s) "db" not set (or set HIERFRAME_DB)`)
	}
	return nil
}
