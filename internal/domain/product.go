package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is one entry in a user's list. Position is the zero-based slot in
// the owner's display order; rows written before position existed read as 0.
type Product struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   uint      `gorm:"not null;index:idx_products_owner" json:"owner_id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Amount    int       `gorm:"not null" json:"amount"`
	Comment   string    `gorm:"size:500" json:"comment"`
	Position  int       `gorm:"not null;default:0" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
