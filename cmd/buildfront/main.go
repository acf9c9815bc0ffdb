package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Its-donkey/buildfront/internal/backup"
	"github.com/Its-donkey/buildfront/internal/config"
	"github.com/Its-donkey/buildfront/internal/ratelimit"
	"github.com/Its-donkey/buildfront/internal/server"
	"github.com/Its-donkey/buildfront/internal/store"
	"github.com/Its-donkey/buildfront/internal/store/persist"
	"github.com/Its-donkey/buildfront/logging"
)

const connectTimeout = 5 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		// A second signal skips the graceful shutdown.
		<-sigCh
		log.Println("second interrupt received, forcing shutdown")
		os.Exit(1)
	}()
	defer func() {
		signal.Stop(sigCh)
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("buildfront: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("buildfront", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to an optional YAML config file")
	envFile := flags.String("env", "", "path to a .env file (defaults to .env)")
	listen := flags.String("listen", "", "address to serve the site (overrides server.listen)")
	backupNow := flags.Bool("backup-now", false, "write one snapshot export to backup.dir and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		return err
	}
	if l := strings.TrimSpace(*listen); l != "" {
		cfg.Server.Listen = l
	}

	logger, closeLog, err := newLogger(cfg.Logging, stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	slot, closeSlot, err := openSlot(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeSlot()

	st := store.Open(ctx, store.Options{
		Slot:         slot,
		Seed:         cfg.Seed,
		Logger:       logger,
		WriteTimeout: cfg.Storage.WriteTimeout(),
	})

	if *backupNow {
		scheduler, err := backup.New(st, backup.Options{Dir: cfg.Backup.Dir, Retain: cfg.Backup.Retain, Logger: logger})
		if err != nil {
			return err
		}
		path, err := scheduler.RunOnce()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil
	}

	if cfg.Backup.Schedule != "" {
		scheduler, err := backup.New(st, backup.Options{Dir: cfg.Backup.Dir, Retain: cfg.Backup.Retain, Logger: logger})
		if err != nil {
			return err
		}
		if err := scheduler.Start(cfg.Backup.Schedule); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	return server.Run(ctx, server.Options{
		Listen:  cfg.Server.Listen,
		Store:   st,
		Logger:  logger,
		Limiter: ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
	})
}

func newLogger(cfg config.LoggingConfig, stdout io.Writer) (*logging.Logger, func(), error) {
	level, ok := logging.ParseLevel(cfg.Level)
	if !ok {
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	if cfg.File == "" {
		return logging.New("buildfront", level, stdout), func() {}, nil
	}
	file, err := logging.NewFileWriter(logging.FileOptions{
		Path:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
	if err != nil {
		return nil, nil, err
	}
	return logging.New("buildfront", level, stdout, file), func() { _ = file.Close() }, nil
}

// openSlot builds the persistence backend named by cfg.Backend. The returned
// func releases its connections.
func openSlot(ctx context.Context, cfg config.StorageConfig) (persist.Slot, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendMemory:
		return persist.NewMemorySlot(), noop, nil
	case config.BackendFile:
		slot, err := persist.NewFileSlot(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return slot, noop, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return persist.NewRedisSlot(client), func() { _ = client.Close() }, nil
	case config.BackendSQLite, config.BackendPostgres:
		driver := persist.DriverSQLite
		if cfg.Backend == config.BackendPostgres {
			driver = persist.DriverPostgres
		}
		db, err := persist.OpenSQL(driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		initCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		slot, err := persist.NewSQLSlot(initCtx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return slot, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
