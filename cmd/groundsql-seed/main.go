package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/groundsql/groundsql/internal/config"
	"github.com/groundsql/groundsql/internal/datastore/sqldb"
	"github.com/groundsql/groundsql/internal/seed"
)

func main() {
	direction := flag.String("direction", "up", "seed direction: up|down")
	steps := flag.Int("steps", 0, "number of seed steps; 0 means all for up, 1 for down")
	flag.Parse()

	cfg, err := config.LoadFromEnv("groundsql-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, dialect, err := sqldb.OpenDB(ctx, sqldb.Config{
		Dialect:      cfg.Datastore.Dialect,
		DSN:          cfg.Datastore.DSN,
		MaxOpenConns: 1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "datastore error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	runner := seed.NewRunner()
	switch *direction {
	case "up":
		applied, err := runner.Up(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed up failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("applied %d seed script(s) to %s datastore\n", applied, dialect.Name())
	case "down":
		reverted, err := runner.Down(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed down failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rolled back %d seed script(s) from %s datastore\n", reverted, dialect.Name())
	default:
		fmt.Fprintf(os.Stderr, "invalid direction: %s\n", *direction)
		os.Exit(1)
	}
}
