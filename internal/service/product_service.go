package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shelfly/shelfly-backend/internal/domain"
	"github.com/shelfly/shelfly-backend/internal/observability"
	"github.com/shelfly/shelfly-backend/internal/repository"
)

var (
	ErrProductNameRequired   = errors.New("name is required")
	ErrProductNameTooLong    = errors.New("name must be <= 120 characters")
	ErrProductAmountNegative = errors.New("amount must be >= 0")
	ErrProductCommentTooLong = errors.New("comment must be <= 500 characters")
	ErrReorderEmpty          = errors.New("product ids are required")
	ErrReorderDuplicate      = errors.New("product ids must be unique")
	ErrReorderUnknownProduct = errors.New("product ids must belong to your list")
)

type CreateProductInput struct {
	Name    string
	Amount  int
	Comment string
}

type UpdateProductInput struct {
	Name    *string
	Amount  *int
	Comment *string
}

type ProductServiceImpl struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductServiceImpl {
	return &ProductServiceImpl{repo: repo}
}

func (s *ProductServiceImpl) List(ctx context.Context, ownerID uint) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "list", outcome, time.Since(start)) }()

	products, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

func (s *ProductServiceImpl) GetByID(ctx context.Context, ownerID uint, id string) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "get", outcome, time.Since(start)) }()

	product, err := s.ownedProduct(id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductServiceImpl) Create(ctx context.Context, ownerID uint, input CreateProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "create", outcome, time.Since(start)) }()

	name := strings.TrimSpace(input.Name)
	// Comment is free-form and stored verbatim; only the name is normalized.
	comment := input.Comment
	if name == "" {
		outcome = "bad_request"
		return nil, ErrProductNameRequired
	}
	if len(name) > 120 {
		outcome = "bad_request"
		return nil, ErrProductNameTooLong
	}
	if input.Amount < 0 {
		outcome = "bad_request"
		return nil, ErrProductAmountNegative
	}
	if len(comment) > 500 {
		outcome = "bad_request"
		return nil, ErrProductCommentTooLong
	}

	position, err := s.nextPosition(ownerID)
	if err != nil {
		outcome = "error"
		return nil, err
	}

	product := &domain.Product{
		OwnerID:  ownerID,
		Name:     name,
		Amount:   input.Amount,
		Comment:  comment,
		Position: position,
	}
	if err := s.repo.Create(product); err != nil {
		outcome = "error"
		return nil, err
	}
	return product, nil
}

func (s *ProductServiceImpl) Update(ctx context.Context, ownerID uint, id string, input UpdateProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "update", outcome, time.Since(start)) }()

	if _, err := s.ownedProduct(id, ownerID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			outcome = "bad_request"
			return nil, ErrProductNameRequired
		}
		if len(name) > 120 {
			outcome = "bad_request"
			return nil, ErrProductNameTooLong
		}
		updates["name"] = name
	}
	if input.Amount != nil {
		if *input.Amount < 0 {
			outcome = "bad_request"
			return nil, ErrProductAmountNegative
		}
		updates["amount"] = *input.Amount
	}
	if input.Comment != nil {
		comment := *input.Comment
		if len(comment) > 500 {
			outcome = "bad_request"
			return nil, ErrProductCommentTooLong
		}
		updates["comment"] = comment
	}

	// An empty patch still bumps updated_at so clients see the write.
	if len(updates) == 0 {
		if err := s.repo.Touch(id); err != nil {
			outcome = "error"
			return nil, err
		}
	} else if err := s.repo.Update(id, updates); err != nil {
		outcome = "error"
		return nil, err
	}

	product, err := s.repo.FindByID(id)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return product, nil
}

func (s *ProductServiceImpl) DeleteByID(ctx context.Context, ownerID uint, id string) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "delete", outcome, time.Since(start)) }()

	if _, err := s.ownedProduct(id, ownerID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return err
	}
	if err := s.repo.DeleteByID(id); err != nil {
		outcome = "error"
		return err
	}
	return nil
}

func (s *ProductServiceImpl) Reorder(ctx context.Context, ownerID uint, ids []string) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "reorder", outcome, time.Since(start)) }()
	observability.RecordReorderBatchSize(ctx, len(ids))

	if len(ids) == 0 {
		outcome = "bad_request"
		return nil, ErrReorderEmpty
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			outcome = "bad_request"
			return nil, ErrReorderDuplicate
		}
		seen[id] = struct{}{}
	}

	owned, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	ownedIDs := make(map[string]struct{}, len(owned))
	for _, p := range owned {
		ownedIDs[p.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := ownedIDs[id]; !ok {
			outcome = "bad_request"
			return nil, ErrReorderUnknownProduct
		}
	}

	if err := s.repo.ReassignPositions(ids); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			// Raced with a concurrent delete; nothing was written.
			outcome = "bad_request"
			return nil, ErrReorderUnknownProduct
		}
		outcome = "error"
		return nil, err
	}

	products, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return products, nil
}

// ownedProduct resolves id for ownerID. Products owned by somebody else are
// reported as missing so ids cannot be probed across accounts.
func (s *ProductServiceImpl) ownedProduct(id string, ownerID uint) (*domain.Product, error) {
	product, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if product.OwnerID != ownerID {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (s *ProductServiceImpl) nextPosition(ownerID uint) (int, error) {
	products, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 {
		return 0, nil
	}
	max := products[0].Position
	for _, p := range products[1:] {
		if p.Position > max {
			max = p.Position
		}
	}
	return max + 1, nil
}
