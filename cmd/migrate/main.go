package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/diagnosis/visitor-desk/pkg/config"
	"github.com/diagnosis/visitor-desk/pkg/database"
	"github.com/diagnosis/visitor-desk/pkg/logger"
	"github.com/diagnosis/visitor-desk/services/visitors/migrations"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: migrate [up|down|status|version|redo|reset] [args]\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	command := "up"
	args := flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("Running migrations", "command", command)
	if err := database.RunMigrations(ctx, pool, migrations.FS, ".", command, args...); err != nil {
		logger.Error("Migration failed", "command", command, "error", err)
		pool.Close()
		os.Exit(1)
	}
	logger.Info("Migrations finished", "command", command)
}
