// Command migrate applies, rolls back and reports schema migrations of the
// lessons database.
//
// Usage:
//
//	migrate [-timeout 1m] up|down|status
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/config"
	"github.com/tutorhub/tutorhub-core/internal/infrastructure/persistence/postgres"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-timeout d] up|down|status\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, action string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.LoggerOptions()).Named("migrate")
	defer func() { _ = log.Sync() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := postgres.NewConnection(ctx, cfg.PostgresConfig(), log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ВЫПОЛНЕНИЕ КОМАНДЫ
	// ─────────────────────────────────────────────────────────────────────────
	switch action {
	case "up":
		applied, err := migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed", zap.Int("applied", applied))
		return nil

	case "down":
		if err := migrator.Rollback(ctx); err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		return nil

	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		printStatus(status)
		return nil

	default:
		return fmt.Errorf("unknown action %q (want up, down or status)", action)
	}
}

func printStatus(status []postgres.Migration) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
	for _, m := range status {
		appliedAt := "pending"
		if m.IsApplied {
			appliedAt = m.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Version, m.Name, appliedAt)
	}
	_ = w.Flush()
}
