// Package main is the entry point for the Gatekeep admin CLI.
// It provides administrative commands for managing user accounts directly
// against the configured user store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/gatekeep/gatekeep/internal/config"
	"github.com/gatekeep/gatekeep/internal/repository"
	"github.com/gatekeep/gatekeep/internal/repository/postgres"
	"github.com/gatekeep/gatekeep/internal/repository/sqlite"
	"github.com/gatekeep/gatekeep/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Gatekeep Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUserCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runUserCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: gatekeep-admin user <create|list>")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		username := fs.String("username", "", "username for the new account")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *username == "" {
			return fmt.Errorf("-username is required")
		}
		return createUser(*configPath, *username)

	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		limit := fs.Int("limit", 20, "maximum number of users to list")
		offset := fs.Int("offset", 0, "number of users to skip")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return listUsers(*configPath, *limit, *offset)

	default:
		return fmt.Errorf("unknown user command: %s", args[0])
	}
}

func createUser(configPath, username string) error {
	svc, cleanup, err := newAuthService(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := svc.Register(ctx, service.RegisterInput{Username: username, Password: password})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %q (id %d)\n", out.Username, out.UserID)
	return nil
}

func listUsers(configPath string, limit, offset int) error {
	svc, cleanup, err := newAuthService(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := svc.List(ctx, limit, offset)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

// newAuthService opens the configured store and returns a service plus a
// cleanup function that releases the connection.
func newAuthService(configPath string) (*service.AuthService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// The CLI stays quiet unless something goes wrong.
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		userRepo repository.UserRepository
		cleanup  func()
	)
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		userRepo = sqlite.NewUserRepository(db)
		cleanup = func() { db.Close() }
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		userRepo = postgres.NewUserRepository(db)
		cleanup = func() { db.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}

	return service.NewAuthService(userRepo, logger), cleanup, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func printUsage() {
	fmt.Println(`Gatekeep Admin CLI

Usage:
  gatekeep-admin <command> [arguments]

Commands:
  user create   Create a user account (prompts for the password)
  user list     List user accounts
  version       Print version information
  help          Show this help message

Examples:
  gatekeep-admin user create -username admin
  gatekeep-admin user list -limit 50
  gatekeep-admin user create -config /etc/gatekeep/config.yaml -username admin`)
}
