// Package migrate applies the storefront's goose SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the source location used by the create and validate commands.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

// Migrations holds the SQL files compiled into every binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Step is one migration touched or inspected by a command.
type Step struct {
	Version  int64
	Path     string
	Action   string
	Duration time.Duration
}

func provider(db *sql.DB) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	sub, err := fs.Sub(Migrations, embeddedDir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectPostgres, db, sub)
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB) ([]Step, error) {
	return Apply(ctx, db, "up", "")
}

// Apply runs up, down, status or version against db. version is required for
// "version" and names the YYYYMMDDHHMMSS target; the direction follows from
// the current database version.
func Apply(ctx context.Context, db *sql.DB, command, version string) ([]Step, error) {
	p, err := provider(db)
	if err != nil {
		return nil, err
	}
	switch command {
	case "up":
		return results(p.Up(ctx))
	case "down":
		res, err := p.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose down: %w", err)
		}
		return []Step{fromResult(res)}, nil
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose status: %w", err)
		}
		steps := make([]Step, 0, len(statuses))
		for _, st := range statuses {
			steps = append(steps, Step{Version: st.Source.Version, Path: st.Source.Path, Action: string(st.State)})
		}
		return steps, nil
	case "version":
		return migrateTo(ctx, p, version)
	default:
		return nil, fmt.Errorf("unknown migrate command %q", command)
	}
}

func migrateTo(ctx context.Context, p *goose.Provider, version string) ([]Step, error) {
	if version == "" {
		return nil, errors.New("target version is required")
	}
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current == target:
		return nil, nil
	case current < target:
		return results(p.UpTo(ctx, target))
	default:
		return results(p.DownTo(ctx, target))
	}
}

func results(res []*goose.MigrationResult, err error) ([]Step, error) {
	if err != nil {
		return nil, fmt.Errorf("goose: %w", err)
	}
	steps := make([]Step, 0, len(res))
	for _, r := range res {
		steps = append(steps, fromResult(r))
	}
	return steps, nil
}

func fromResult(r *goose.MigrationResult) Step {
	if r == nil || r.Source == nil {
		return Step{}
	}
	return Step{Version: r.Source.Version, Path: r.Source.Path, Action: r.Direction, Duration: r.Duration}
}
