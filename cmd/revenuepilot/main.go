package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/trebbag/revenuepilot-sub003/internal/client"
	"github.com/trebbag/revenuepilot-sub003/internal/config"
	"github.com/trebbag/revenuepilot-sub003/internal/store/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "", "Backend URL (overrides environment)")
	dbPath := flag.String("db", "", "Path to local database")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	ctx := context.Background()

	cfg := config.Load()
	if *serverURL != "" {
		cfg.BaseURL = config.ResolveBaseURL(*serverURL, "", "")
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	storage, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	app := client.New(ctx, cfg, storage)

	switch command {
	case "login":
		err = runLogin(ctx, app, args[1:])
	case "logout":
		app.Logout(ctx)
		fmt.Println("Logged out")
	case "status":
		err = runStatus(ctx, app)
	case "flush":
		succeeded, failed := app.FlushQueue(ctx)
		fmt.Printf("Replayed %d, still pending %d\n", succeeded, failed)
	case "templates":
		err = runTemplates(ctx, app)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runLogin(ctx context.Context, app *client.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: login <username>")
	}
	username := args[0]

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if _, err := app.Login(ctx, username, string(password)); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Println("Login successful")
	return nil
}

func runStatus(ctx context.Context, app *client.Client) error {
	if app.IsAuthenticated() {
		fmt.Println("Authenticated: yes")
	} else {
		fmt.Println("Authenticated: no")
	}
	if app.Ping(ctx) {
		fmt.Println("Backend:       reachable")
	} else {
		fmt.Println("Backend:       unreachable")
	}
	fmt.Printf("Pending ops:   %d\n", app.QueueDepth())
	if last := app.LastBackendError(); last != "" {
		fmt.Printf("Last error:    %s\n", last)
	}
	return nil
}

func runTemplates(ctx context.Context, app *client.Client) error {
	templates := app.ListTemplates(ctx)
	if len(templates) == 0 {
		fmt.Println("No templates")
		return nil
	}
	for _, t := range templates {
		fmt.Printf("%s  %s\n", t.ID, t.Name)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: revenuepilot [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login <username>   Authenticate against the backend")
	fmt.Println("  logout             Drop stored credentials")
	fmt.Println("  status             Show auth, connectivity and queue state")
	fmt.Println("  flush              Replay the offline mutation queue")
	fmt.Println("  templates          List note templates")
}

func printVersion() {
	fmt.Printf("RevenuePilot Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
