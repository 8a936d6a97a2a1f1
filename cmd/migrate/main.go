package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/bootstrap"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory for create and validate")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// authoring commands touch only the source tree
	switch *cmd {
	case "create":
		if *name == "" {
			exitf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			exitf("create migration: %v", err)
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			exitf("invalid migrations: %v", err)
		}
		fmt.Println("migrations valid")
		return
	}

	ctx := context.Background()
	rt, err := bootstrap.Start(ctx, "migrate", bootstrap.Options{SkipDevMigrations: true})
	if err != nil {
		bootstrap.Fatal(ctx, nil, "migrate start-up failed", err)
	}
	ctx = rt.Logger.WithFields(ctx, map[string]any{"env": rt.Config.App.Env, "cmd": *cmd})

	sqlDB, err := rt.DB.DB().DB()
	if err == nil {
		var steps []migrate.Step
		steps, err = migrate.Apply(ctx, sqlDB, *cmd, *version)
		for _, step := range steps {
			rt.Logger.Info(rt.Logger.WithFields(ctx, map[string]any{
				"version":     step.Version,
				"path":        step.Path,
				"duration_ms": step.Duration.Milliseconds(),
			}), step.Action)
		}
	}
	rt.Close(ctx)
	if err != nil {
		bootstrap.Fatal(ctx, rt.Logger, "migration command failed", err)
	}
	rt.Logger.Info(ctx, "migration command complete")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
