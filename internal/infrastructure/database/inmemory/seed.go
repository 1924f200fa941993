package inmemory

import (
	"fmt"

	"github.com/your-org/fitness-backend/internal/infrastructure/database/seed"
	"github.com/your-org/fitness-backend/internal/pkg/auth"
)

// Seed loads the development accounts and catalog
func (s *Store) Seed(bcryptCost int) error {
	for _, u := range seed.Users() {
		hash, err := auth.HashPassword(u.Password, bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		account := u.User
		account.Password = hash
		s.AddUser(account)
	}

	for _, p := range seed.Products() {
		s.AddProduct(p)
	}
	return nil
}
