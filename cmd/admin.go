package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

// withServices opens storage for a one-shot command and closes it after fn.
func withServices(ctx context.Context, fn func(ctx context.Context, svc *services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.App.Timeout)
		defer cancel()
		svc.close(closeCtx)
	}()

	return fn(ctx, svc)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for every resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc *services) error {
				if err := svc.backend.migrate(ctx); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				logger.GetLogger().Info("Store migrated successfully", zap.String("driver", svc.backend.driver))
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc *services) error {
				created, err := svc.auth.SeedAdmin(ctx, username, svc.cfg.App.AdminPassword)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", svc.cfg.App.AdminEmail)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", svc.cfg.App.AdminEmail)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "username of the admin account")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an auth token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			return withServices(cmd.Context(), func(ctx context.Context, svc *services) error {
				tok, err := svc.auth.IssueUserToken(ctx, userID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tok)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id of the user the token is issued for")
	return cmd
}
