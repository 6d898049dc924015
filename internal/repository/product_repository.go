package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shelfly/shelfly-backend/internal/domain"
	"github.com/shelfly/shelfly-backend/internal/observability"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	Create(product *domain.Product) error
	FindByID(id string) (*domain.Product, error)
	ListByOwner(ownerID uint) ([]domain.Product, error)
	Update(id string, updates map[string]any) error
	Touch(id string) error
	DeleteByID(id string) error
	ReassignPositions(ids []string) error
}

type GormProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(product *domain.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "create", "success")
	return nil
}

func (r *GormProductRepository) FindByID(id string) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "product", "find_by_id", "not_found")
			return nil, ErrProductNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "product", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "find_by_id", "success")
	return &product, nil
}

// ListByOwner returns the owner's full list in display order. created_at
// breaks ties so duplicate positions from racing creates still list stably.
func (r *GormProductRepository) ListByOwner(ownerID uint) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.Where("owner_id = ?", ownerID).
		Order("position asc").Order("created_at asc").
		Find(&products).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "list_by_owner", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "list_by_owner", "success")
	return products, nil
}

func (r *GormProductRepository) Update(id string, updates map[string]any) error {
	res := r.db.Model(&domain.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "product", "update", "not_found")
		return ErrProductNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "update", "success")
	return nil
}

// Touch refreshes updated_at without changing any other field. Backs the
// empty partial update, which still counts as a write.
func (r *GormProductRepository) Touch(id string) error {
	return r.Update(id, map[string]any{"updated_at": time.Now()})
}

func (r *GormProductRepository) DeleteByID(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "not_found")
		return ErrProductNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "delete_by_id", "success")
	return nil
}

// ReassignPositions writes position = index for each id inside one
// transaction. If any id no longer exists the whole batch rolls back, so a
// reorder is never half applied.
func (r *GormProductRepository) ReassignPositions(ids []string) error {
	now := time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&domain.Product{}).Where("id = ?", id).
				Updates(map[string]any{"position": i, "updated_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrProductNotFound
			}
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrProductNotFound) {
			outcome = "not_found"
		}
		observability.RecordRepositoryOperation(context.Background(), "product", "reassign_positions", outcome)
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "product", "reassign_positions", "success")
	return nil
}
