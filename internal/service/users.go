package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
)

// ParseSeedUsers reads "email:first:last" entries separated by commas.
// First and last name are optional.
func ParseSeedUsers(list string) ([]model.AppUser, error) {
	var users []model.AppUser
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		email := normalizeEmail(parts[0])
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("seed user %q: invalid email", entry)
		}
		u := model.AppUser{ID: uuid.NewString(), Email: email}
		if len(parts) > 1 {
			u.FirstName = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			u.LastName = strings.TrimSpace(parts[2])
		}
		users = append(users, u)
	}
	return users, nil
}

// SeedUsers inserts the users whose email is not taken yet and returns how
// many were added.
func SeedUsers(ctx context.Context, store repository.Store, users []model.AppUser) (int, error) {
	added := 0
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		for i := range users {
			_, err := tx.UserByEmail(ctx, users[i].Email)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if err := tx.InsertUser(ctx, &users[i]); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}
	return added, nil
}
