// Package seed holds the demo accounts and catalog loaded in development.
package seed

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
)

// User is a demo account with its plain-text development password
type User struct {
	user.User
	Password string
}

// Users returns the development accounts
func Users() []User {
	return []User{
		{
			User: user.User{
				Email:     "admin@example.com",
				Username:  "admin",
				FirstName: "Admin",
				LastName:  "User",
				Role:      user.RoleAdmin,
				IsActive:  true,
			},
			Password: "Admin#2024",
		},
		{
			User: user.User{
				Email:     "client@example.com",
				Username:  "client",
				FirstName: "Test",
				LastName:  "Client",
				Role:      user.RoleClient,
				IsActive:  true,
			},
			Password: "Client#2024",
		},
	}
}

// Products returns the demo catalog
func Products() []product.Product {
	return []product.Product{
		{
			Name:           "Adjustable Dumbbell Set",
			Description:    "Pair of adjustable dumbbells from 2.5 to 24 kg with a quick-select dial.",
			Price:          decimal.RequireFromString("349.00"),
			DiscountPrice:  decimal.NewNullDecimal(decimal.RequireFromString("299.00")),
			InventoryCount: 15,
			IsActive:       true,
			Categories:     pq.StringArray{"strength", "equipment"},
			Images: []product.ProductImage{
				{URL: "https://cdn.example.com/products/dumbbells.jpg", AltText: "Adjustable dumbbells", IsMain: true},
			},
		},
		{
			Name:           "Whey Protein 2kg",
			Description:    "Chocolate whey protein isolate, 66 servings.",
			Price:          decimal.RequireFromString("59.90"),
			InventoryCount: 120,
			IsActive:       true,
			Categories:     pq.StringArray{"nutrition", "supplements"},
			Images: []product.ProductImage{
				{URL: "https://cdn.example.com/products/whey.jpg", AltText: "Whey protein tub", IsMain: true},
			},
		},
		{
			Name:           "Yoga Mat Pro",
			Description:    "6 mm non-slip mat with carrying strap.",
			Price:          decimal.RequireFromString("39.00"),
			InventoryCount: 60,
			IsActive:       true,
			Categories:     pq.StringArray{"yoga", "accessories"},
		},
		{
			Name:           "Resistance Band Kit",
			Description:    "Five latex bands with handles and door anchor.",
			Price:          decimal.RequireFromString("24.50"),
			DiscountPrice:  decimal.NewNullDecimal(decimal.RequireFromString("19.99")),
			InventoryCount: 80,
			IsActive:       true,
			Categories:     pq.StringArray{"strength", "accessories"},
		},
		{
			Name:           "Heart Rate Monitor (discontinued)",
			Description:    "Chest strap monitor, replaced by the v2 model.",
			Price:          decimal.RequireFromString("79.00"),
			InventoryCount: 3,
			IsActive:       false,
			Categories:     pq.StringArray{"electronics"},
		},
	}
}
