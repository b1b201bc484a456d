package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trailbaseio/trailbase-go/internal/cli"
	"github.com/trailbaseio/trailbase-go/internal/iocli"
	"github.com/trailbaseio/trailbase-go/internal/storage"
	"github.com/trailbaseio/trailbase-go/internal/storage/boltdb"
	"github.com/trailbaseio/trailbase-go/internal/storage/queue"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	site := flag.String("site", "http://localhost:4000", "TrailBase server URL")
	dbPath := flag.String("db", "trailbase-client.db", "Path to local session database")
	queuePath := flag.String("queue", "trailbase-queue.db", "Path to offline operation queue")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	// Контекст отменяется по Ctrl+C, чтобы подписки завершались чисто
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Открываем BoltDB хранилище сессии
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Открываем очередь офлайн операций
	opQueue, err := queue.New(ctx, *queuePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open operation queue: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := opQueue.Close(); err != nil {
			slog.Error("failed to close operation queue", "error", err)
		}
	}()

	tokenStore := storage.NewEncryptedTokenStore(boltStorage)

	// Выполняем команду
	c := cli.New(*site, iocli.NewStdio(), tokenStore, opQueue)
	c.Run(ctx, command, args[1:])
}

func printVersion() {
	fmt.Printf("TrailBase Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
