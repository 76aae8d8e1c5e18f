package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"dersplan/internal/adapters/storage"
	accountStore "dersplan/internal/adapters/storage/account"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		db, _, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		v, err := storage.SchemaVersion(db)
		if err != nil {
			return err
		}
		log.Printf("Database %s at schema %d", cfg.Database.Path, v)
		return nil
	},
}

var (
	createUserEmail    string
	createUserPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an active local teacher account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if createUserEmail == "" || createUserPassword == "" {
			return errors.New("--email and --password are required")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.UsesSupabase() {
			return errors.New("accounts are managed by the hosted authenticator, create them there")
		}
		db, timedDB, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := orchestrators.ExecuteCreateAccount(cmd.Context(), orchestrators.CreateAccountInput{
			Email:    createUserEmail,
			Password: createUserPassword,
		}, orchestrators.CreateAccountDeps{AccountStore: accountStore.NewSQLiteStore(timedDB)})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		log.Printf("Created account %s (%s)", id, createUserEmail)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "teacher e-mail address")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "initial password")
}
