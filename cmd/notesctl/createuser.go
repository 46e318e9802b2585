package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/notesai/notes-backend/internal/auth"
	"github.com/notesai/notes-backend/internal/database"
	"github.com/notesai/notes-backend/internal/models"
	"github.com/notesai/notes-backend/internal/repository/postgres"
)

var createUserOpts struct {
	email    string
	password string
	username string
	fullName string
	role     string
}

var createUserCmd = &cobra.Command{
	Use:   "createuser",
	Short: "Create a user, or reset an existing user's password and role",
	Long: `createuser inserts a user account. When the email is already registered
the account's password, username, name and role are overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := createUserOpts
		if opts.role != models.RoleUser && opts.role != models.RoleAdmin {
			return fmt.Errorf("unknown role %q", opts.role)
		}
		if err := auth.ValidatePassword(opts.password); err != nil {
			return err
		}

		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		hash, err := auth.HashPassword(opts.password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		now := time.Now()
		user := &models.User{
			ID:           uuid.New(),
			Email:        opts.email,
			Username:     opts.username,
			FullName:     opts.fullName,
			PasswordHash: hash,
			IsActive:     true,
			Role:         opts.role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		id, err := postgres.NewUserRepository(db.DB).UpsertByEmail(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		action := "created"
		if id != user.ID {
			action = "updated"
		}
		log.WithField("user_id", id).Infof("user %s", action)

		fmt.Printf("User %s: %s (%s, role=%s)\n", action, opts.email, opts.username, opts.role)
		return nil
	},
}

func init() {
	flags := createUserCmd.Flags()
	flags.StringVar(&createUserOpts.email, "email", "", "User email")
	flags.StringVar(&createUserOpts.password, "password", "", "User password")
	flags.StringVar(&createUserOpts.username, "username", "", "Username")
	flags.StringVar(&createUserOpts.fullName, "name", "", "Full name")
	flags.StringVar(&createUserOpts.role, "role", models.RoleUser, "User role (user, admin)")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
	_ = createUserCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(createUserCmd)
}
