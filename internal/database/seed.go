package database

import (
	"fmt"
	"strings"

	"github.com/shelfly/shelfly-backend/internal/domain"

	"gorm.io/gorm"
)

type SeedReport struct {
	CreatedUsers    int  `json:"created_users"`
	CreatedProducts int  `json:"created_products"`
	Noop            bool `json:"noop"`
}

var starterProducts = []domain.Product{
	{Name: "Milk", Amount: 1, Comment: "semi-skimmed", Position: 0},
	{Name: "Bread", Amount: 2, Position: 1},
	{Name: "Eggs", Amount: 12, Comment: "free range", Position: 2},
}

// Seed creates a demo account with a small starter list. It is idempotent:
// the user is matched by email and products are only written for a fresh user.
func Seed(db *gorm.DB, demoEmail string) (*SeedReport, error) {
	report := &SeedReport{}

	email := strings.TrimSpace(strings.ToLower(demoEmail))
	if email == "" {
		report.Noop = true
		return report, nil
	}

	user := domain.User{Email: email, Name: "Demo User", Status: "active"}
	res := db.Where("email = ?", email).FirstOrCreate(&user)
	if res.Error != nil {
		return nil, fmt.Errorf("seed demo user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		report.Noop = true
		return report, nil
	}
	report.CreatedUsers++

	for _, p := range starterProducts {
		p.OwnerID = user.ID
		if err := db.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		report.CreatedProducts++
	}
	return report, nil
}
