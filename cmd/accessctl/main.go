package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"crm-app/config"
	"crm-app/database"
	"crm-app/internal/domain/access"
	"crm-app/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "accessctl",
	Short: "Operator tooling for CRM access and subscriptions",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the profile and subscription tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDB(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var tenantStatusCmd = &cobra.Command{
	Use:   "tenant-status <tenant-id>",
	Short: "Print the derived subscription status of a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid tenant id %q: %w", args[0], err)
		}
		db, err := openDB()
		if err != nil {
			return err
		}

		sub, err := store.NewSubscriptionStore(db).GetByTenant(cmd.Context(), tenantID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(access.ResolveSubscription(sub, time.Now()))
	},
}

var revokeOperator bool

var grantOperatorCmd = &cobra.Command{
	Use:   "grant-operator <user-id>",
	Short: "Mark a profile as platform operator (bypasses the subscription guard)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		db, err := openDB()
		if err != nil {
			return err
		}

		if err := store.NewProfileStore(db).SetPlatformOperator(cmd.Context(), userID, !revokeOperator); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "platform operator for %s: %t\n", userID, !revokeOperator)
		return nil
	},
}

func openDB() (*gorm.DB, error) {
	dsn, err := config.DatabaseURL()
	if err != nil {
		return nil, err
	}
	return database.Open(dsn)
}

func init() {
	grantOperatorCmd.Flags().BoolVar(&revokeOperator, "revoke", false, "remove the operator flag instead")
	rootCmd.AddCommand(migrateCmd, tenantStatusCmd, grantOperatorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
