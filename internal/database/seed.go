package database

import (
	"context"
	"fmt"
	"strings"

	"lab-inventory/internal/config"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seed creates the bootstrap admin account. It is a no-op when an admin
// already exists or no password is configured, so it is safe on every start.
func Seed(ctx context.Context, st *store.Store, admin config.AdminConfig, log *zap.Logger) (bool, error) {
	if admin.Password == "" {
		log.Warn("bootstrap admin password not set, skipping admin seed")
		return false, nil
	}

	var created bool
	err := st.Transact(ctx, func(tx *store.Store) error {
		n, err := tx.CountUsersByRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		u := models.User{
			Name:         admin.Name,
			Email:        strings.ToLower(strings.TrimSpace(admin.Email)),
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
		}
		if err := tx.CreateUser(ctx, &u); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		log.Info("bootstrap admin created", zap.String("email", admin.Email))
	} else {
		log.Info("admin account already exists, skipping seed")
	}
	return created, nil
}
