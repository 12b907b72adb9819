// Package main is the entry point for the NoteVault admin CLI.
// This tool provides administrative commands for managing users and
// seeding demo data.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/halverson/notevault/internal/config"
	"github.com/halverson/notevault/internal/metrics"
	"github.com/halverson/notevault/internal/repository"
	"github.com/halverson/notevault/internal/repository/postgres"
	"github.com/halverson/notevault/internal/repository/sqlite"
	"github.com/halverson/notevault/internal/service"
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
		fmt.Printf("NoteVault Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		runUserCommand(os.Args[2:])

	case "seed":
		runSeed()

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runUserCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: notevault-admin user <create|list|delete> [arguments]")
		os.Exit(1)
	}

	ctx := context.Background()
	repos, closeDB := mustOpenRepos(ctx)
	defer closeDB()

	switch args[0] {
	case "create":
		userCreate(ctx, repos, args[1:])
	case "list":
		userList(ctx, repos)
	case "delete":
		userDelete(ctx, repos, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown user command: %s\n", args[0])
		os.Exit(1)
	}
}

func userCreate(ctx context.Context, repos *repository.Repositories, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: notevault-admin user create <username>")
		os.Exit(1)
	}
	username := args[0]

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	fmt.Print("First name: ")
	firstName, _ := reader.ReadString('\n')
	fmt.Print("Last name: ")
	lastName, _ := reader.ReadString('\n')

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
		os.Exit(1)
	}

	authService := service.NewAuthService(repos.User, metrics.New(), zerolog.Nop())
	out, err := authService.Register(ctx, service.RegisterInput{
		Username:  username,
		Password:  string(password),
		Email:     strings.TrimSpace(email),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created user %s (%s)\n", out.User.Username, out.User.Email)
}

func userList(ctx context.Context, repos *repository.Repositories) {
	result, err := repos.User.List(ctx, repository.ListOptions{Limit: 1000})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list users: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-30s %-50s %s\n", "USERNAME", "EMAIL", "CREATED")
	for _, u := range result.Items {
		fmt.Printf("%-30s %-50s %s\n", u.Username, u.Email, u.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("\n%d user(s)\n", result.Total)
}

func userDelete(ctx context.Context, repos *repository.Repositories, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: notevault-admin user delete <username>")
		os.Exit(1)
	}
	username := args[0]

	fmt.Printf("Delete user %q and all of their notes? [y/N] ", username)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(answer)) != "y" {
		fmt.Println("Aborted")
		return
	}

	if err := repos.User.Delete(ctx, username); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to delete user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deleted user %s\n", username)
}

// seedUsers are the demo accounts created by the seed command.
var seedUsers = []service.RegisterInput{
	{
		Username:  "test_user1",
		Password:  "test_user1_password",
		Email:     "test_user1@example.com",
		FirstName: "Test",
		LastName:  "UserOne",
	},
	{
		Username:  "test_user2",
		Password:  "test_user2_password",
		Email:     "test_user2@example.com",
		FirstName: "Test",
		LastName:  "UserTwo",
	},
}

func runSeed() {
	ctx := context.Background()
	repos, closeDB := mustOpenRepos(ctx)
	defer closeDB()

	authService := service.NewAuthService(repos.User, metrics.New(), zerolog.Nop())

	for _, input := range seedUsers {
		if _, err := authService.Register(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", input.Username, err)
			continue
		}
		fmt.Printf("Seeded user %s\n", input.Username)
	}
}

// mustOpenRepos opens the configured database and runs migrations.
func mustOpenRepos(ctx context.Context) (*repository.Repositories, func()) {
	cfg := config.MustLoad(os.Getenv("NOTEVAULT_CONFIG"))
	logger := zerolog.Nop()

	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to PostgreSQL: %v\n", err)
			os.Exit(1)
		}
		if err := db.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
			os.Exit(1)
		}
		return &repository.Repositories{
			User:       postgres.NewUserRepository(db),
			Note:       postgres.NewNoteRepository(db),
			Attachment: postgres.NewAttachmentRepository(db),
		}, func() { db.Close() }

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open SQLite: %v\n", err)
			os.Exit(1)
		}
		if err := db.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
			os.Exit(1)
		}
		return &repository.Repositories{
			User:       sqlite.NewUserRepository(db),
			Note:       sqlite.NewNoteRepository(db),
			Attachment: sqlite.NewAttachmentRepository(db),
		}, func() { db.Close() }

	default:
		fmt.Fprintf(os.Stderr, "Unsupported database driver: %s\n", cfg.Database.Driver)
		os.Exit(1)
		return nil, nil
	}
}

func printUsage() {
	fmt.Println(`NoteVault Admin CLI

Usage:
  notevault-admin <command> [arguments]

Commands:
  user        Manage users (create, list, delete)
  seed        Create the demo users (test_user1, test_user2)
  version     Print version information
  help        Show this help message

Configuration is read from the NOTEVAULT_CONFIG file path and
NOTEVAULT_* environment variables, the same as the server.

Examples:
  notevault-admin user create alice
  notevault-admin user list
  notevault-admin user delete alice
  notevault-admin seed`)
}
