package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/config"
	"github.com/harentsoaR/reliefnet-api/internal/logging"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
	"github.com/harentsoaR/reliefnet-api/internal/utils"
)

var (
	adminUsername string
	adminPassword string
)

// Admin accounts cannot be self-registered through the API, so the first
// one is created from the command line.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an approved Admin account",
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (6 to 72 bytes)")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	if err := checkPassword(adminPassword); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Store.Driver != "mongo" {
		return fmt.Errorf("create-admin needs the mongo store, got %q", cfg.Store.Driver)
	}
	log, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	user, err := createAdmin(ctx, st.Users, adminUsername, adminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	log.Info("admin created", zap.String("userId", user.ID.Hex()), zap.String("username", user.Username))
	return nil
}

func checkPassword(password string) error {
	switch {
	case len(password) < utils.MinPasswordLen:
		return fmt.Errorf("password must be at least %d characters", utils.MinPasswordLen)
	case len(password) > utils.MaxPasswordBytes:
		return fmt.Errorf("password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	return nil
}

func createAdmin(ctx context.Context, users store.Users, username, password string, cost int) (*models.User, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:         primitive.NewObjectID(),
		Username:   username,
		Password:   hash,
		Role:       models.RoleAdmin,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("user %q already exists", username)
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}
