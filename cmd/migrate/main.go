package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/db"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/migrate"
)

type flags struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var f flags
	flag.StringVar(&f.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&f.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&f.name, "name", "", "migration name (for -cmd=create)")
	flag.StringVar(&f.version, "version", "", "target version YYYYMMDDHHMMSS (for -cmd=version)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	// create and validate only touch the filesystem
	switch f.cmd {
	case "create":
		if f.name == "" {
			exit(logg, context.Background(), "missing -name for create", nil)
		}
		path, err := migrate.CreateSQLMigration(f.dir, f.name)
		if err != nil {
			exit(logg, context.Background(), "create migration", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(f.dir); err != nil {
			exit(logg, context.Background(), "migration validation failed", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		exit(logg, context.Background(), "load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": f.cmd,
		"dir": f.dir,
	})

	if err := runWithDB(ctx, cfg, logg, f); err != nil {
		exit(logg, ctx, "migrate "+f.cmd, err)
	}
}

func runWithDB(ctx context.Context, cfg *config.Config, logg *logger.Logger, f flags) error {
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, f.dir, logg)
	if err != nil {
		return err
	}

	switch f.cmd {
	case "up":
		return runner.Up(ctx)
	case "down":
		return runner.Down(ctx)
	case "status":
		return runner.Status(ctx)
	case "version":
		if f.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return runner.To(ctx, f.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", f.cmd)
	}
}

func exit(logg *logger.Logger, ctx context.Context, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
