package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/offline"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/config"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// connect loads configuration and opens the authoritative store
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	var offlinePath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update the MySQL schema. With --offline, also apply the
embedded migrations to the sqlite mirror at PATH.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			if err := models.AutoMigrate(db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Println("✅ Database migration completed")

			if offlinePath == "" {
				return nil
			}
			store, err := offline.Open(offlinePath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(); err != nil {
				return err
			}
			version, err := store.Version(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("✅ Offline mirror at schema version %d", version)
			return nil
		},
	}

	cmd.Flags().StringVar(&offlinePath, "offline", "", "also migrate the sqlite mirror at this path")
	return cmd
}

func seedOwnerCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "seed-owner",
		Short: "Create the owner account on an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			if err := config.NewSeeder(db).SeedOwner(username, email, password); err != nil {
				if errors.Is(err, config.ErrOwnerExists) {
					return fmt.Errorf("refusing to seed: %w", err)
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "owner username")
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().StringVar(&password, "password", "", "owner password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func inviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage invite codes",
	}
	cmd.AddCommand(inviteCreateCmd())
	return cmd
}

func inviteCreateCmd() *cobra.Command {
	var role, createdBy string
	var ttlHours int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invite code on behalf of an existing user",
		Example: `  barstock invite create --role manager --created-by owner
  barstock invite create --role employee --ttl-hours 24 --created-by alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			ctx := cmd.Context()
			creator, err := repositories.NewUserRepository(db).GetByUsername(ctx, createdBy)
			if err != nil {
				return fmt.Errorf("created-by %q: %w", createdBy, err)
			}
			actor := domain.Actor{
				UserID:   creator.ID,
				Username: creator.Username,
				Role:     domain.ParseRole(creator.Role),
			}

			invites := services.NewInviteService(
				repositories.NewInviteRepository(db),
				domain.NewGate(false),
				cfg.Invites.DefaultTTLHours,
			)

			var ttl *int
			if cmd.Flags().Changed("ttl-hours") {
				ttl = &ttlHours
			}
			invite, err := invites.Create(ctx, actor, domain.Role(strings.ToLower(strings.TrimSpace(role))), ttl)
			if err != nil {
				return err
			}

			fmt.Printf("%s\t%s\texpires %s\n", invite.Code, invite.Role, invite.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "role granted on registration")
	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 0, "hours until the code expires (default from INVITE_TTL_HOURS)")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "username of the inviting user")
	_ = cmd.MarkFlagRequired("created-by")
	return cmd
}

func exportOfflineCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-offline",
		Short: "Replace the sqlite mirror with a copy of the database",
		Long: `Copy users, products, recipes, tabs and sales into the sqlite mirror.
The copy is one-way and replaces the mirror in a single transaction.
Passwords and payment secret keys are never exported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			if out == "" {
				out = cfg.Offline.DBPath
			}
			store, err := offline.Open(out)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(); err != nil {
				return err
			}

			summary, err := offline.NewExporter(repositories.NewExportSource(db), store).Run(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "mirror path (default OFFLINE_DB_PATH)")
	return cmd
}
