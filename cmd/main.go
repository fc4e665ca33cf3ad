package main

import (
	"fmt"
	"os"

	"clinic-backend/cmd/bootstrap"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/infrastructure/cache"
	"clinic-backend/internal/infrastructure/database"
	"clinic-backend/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinic-backend",
		Short:        "Clinic appointment scheduling API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator) error { return m.Up() })
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return withMigrator(func(m *database.Migrator) error { return m.Down(steps) })
		},
	}
	downCmd.Flags().Int("steps", 1, "number of migrations to roll back (0 rolls back all)")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func withMigrator(fn func(m *database.Migrator) error) error {
	cfg, log, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	m, err := database.NewMigrator(cfg.DB.MigrateURL(), log)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawUser, _ := cmd.Flags().GetString("user")
			roleName, _ := cmd.Flags().GetString("role")

			userID, err := uuid.Parse(rawUser)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			roleID, ok := entity.RoleIDByName(roleName)
			if !ok {
				return fmt.Errorf("unknown --role %q", roleName)
			}

			cfg, _, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}

			token, tokenID, err := jwt.NewJWTService(cfg.JWT).GenerateAccessToken(userID, roleID)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "token_id: %s\n%s\n", tokenID, token)
			return nil
		},
	}
	cmd.Flags().String("user", "", "user id the token is issued for")
	cmd.Flags().String("role", entity.RolePatient, "role name: admin, doctor or patient")
	_ = cmd.MarkFlagRequired("user")

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an access token by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenID, _ := cmd.Flags().GetString("id")

			cfg, log, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}

			client, err := cache.NewRedisClient(cfg.Redis, log)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := cache.NewTokenDenylist(client).Revoke(cmd.Context(), tokenID, cfg.JWT.AccessExpiry); err != nil {
				return fmt.Errorf("failed to revoke token: %w", err)
			}
			log.Infof("Token %s revoked", tokenID)
			return nil
		},
	}
	revokeCmd.Flags().String("id", "", "token id to revoke")
	_ = revokeCmd.MarkFlagRequired("id")

	cmd.AddCommand(revokeCmd)
	return cmd
}
