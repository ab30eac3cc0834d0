// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command libctl is the operational companion CLI for a Libria deployment.
//
// It talks directly to the database, bypassing the HTTP API, and is meant
// for bootstrap and maintenance tasks that have no business being exposed
// over the network:
//
//	libctl create-admin --email ops@libria.app --first Ada --last Ops
//	libctl sessions prune
//
// The password for create-admin is read interactively from the terminal,
// never from flags, so it cannot leak into shell history.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taibuivan/libria/internal/platform/config"
	pgstore "github.com/taibuivan/libria/internal/platform/postgres"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/internal/users/auth"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

func main() {
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Operational tooling for a Libria deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCreateAdminCommand())
	root.AddCommand(newSessionsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "libctl:", err)
		os.Exit(1)
	}
}

// # create-admin

func newCreateAdminCommand() *cobra.Command {
	var email, firstName, lastName string

	command := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a super_admin account (bootstrap)",
		RunE: func(command *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(command.Context(), 30*time.Second)
			defer cancel()

			pool, log, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			users := auth.NewPostgresUserRepository(pool)

			normalized := auth.NormalizeEmail(email)
			passwordHash, err := sec.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			now := time.Now().UTC()
			admin := &auth.User{
				ID:             uuidv7.New(),
				Email:          normalized,
				PasswordHash:   passwordHash,
				FirstName:      firstName,
				LastName:       lastName,
				Membership:     auth.MembershipStaff,
				Role:           sec.RoleSuperAdmin,
				Status:         auth.StatusActive,
				IsVerified:     true,
				SearchableText: auth.BuildSearchableText(normalized, firstName, lastName),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := users.Create(ctx, admin); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			log.Info("admin_created", slog.String("user_id", admin.ID), slog.String("email", normalized))
			fmt.Println("created super_admin", normalized, "with id", admin.ID)
			return nil
		},
	}

	command.Flags().StringVar(&email, "email", "", "email address for the new account")
	command.Flags().StringVar(&firstName, "first", "", "first name")
	command.Flags().StringVar(&lastName, "last", "", "last name")
	_ = command.MarkFlagRequired("email")
	_ = command.MarkFlagRequired("first")
	_ = command.MarkFlagRequired("last")

	return command
}

// promptPassword reads and confirms a password without echoing it.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}

	password := strings.TrimSpace(string(first))
	if password != strings.TrimSpace(string(second)) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(password) < auth.MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	return password, nil
}

// # sessions

func newSessionsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
	}

	command.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete all expired sessions",
		Long: "The API deletes expired sessions lazily when their token is next presented.\n" +
			"Sessions of users who simply walked away are never presented again, so this\n" +
			"command exists to sweep them out on a schedule (cron).",
		RunE: func(command *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(command.Context(), 30*time.Second)
			defer cancel()

			pool, log, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			sessions := auth.NewPostgresSessionRepository(pool)
			pruned, err := sessions.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("prune sessions: %w", err)
			}

			log.Info("sessions_pruned", slog.Int64("count", pruned))
			fmt.Println("pruned", pruned, "expired sessions")
			return nil
		},
	})

	return command
}

// # shared wiring

// connect loads configuration and opens the database pool with a quiet
// text logger suited for terminal use.
func connect(ctx context.Context) (*pgxpool.Pool, *slog.Logger, error) {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	p, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return p, log, nil
}
