package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/authapi/internal/client/api"
	"github.com/iudanet/authapi/internal/client/cli"
	"github.com/iudanet/authapi/internal/client/iocli"
	"github.com/iudanet/authapi/internal/client/storage/boltdb"
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
	serverURL := flag.String("server", "http://localhost:3000", "Server URL")
	dbPath := flag.String("db", "authapi-client.db", "Path to local session database")
	password := flag.String("password", "", "Password (not recommended, use "+cli.PasswordEnv+" or --password-file)")
	passwordFile := flag.String("password-file", "", "Path to file containing password")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	console := iocli.NewStdio()

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.New(console, nil, nil, cli.Passwords{}).PrintUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	app := cli.New(console, api.NewClient(*serverURL), boltStorage, cli.Passwords{
		FromFile: *passwordFile,
		FromArgs: *password,
	})

	runErr := app.Run(ctx, args[0], args[1:])

	if err := boltStorage.Close(); err != nil {
		slog.Error("failed to close database", slog.Any("error", err))
	}

	if runErr != nil {
		if !errors.Is(runErr, cli.ErrUnknownCommand) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		} else {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		}
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("AuthAPI Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
