package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shelfly/shelfly-backend/internal/domain"
	"github.com/shelfly/shelfly-backend/internal/repository"
)

type stubProductRepo struct {
	items map[string]domain.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{items: map[string]domain.Product{}}
}

func (s *stubProductRepo) Create(product *domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.items[product.ID] = *product
	return nil
}

func (s *stubProductRepo) FindByID(id string) (*domain.Product, error) {
	product, ok := s.items[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := product
	return &cp, nil
}

func (s *stubProductRepo) ListByOwner(ownerID uint) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(s.items))
	for _, p := range s.items {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *stubProductRepo) Update(id string, updates map[string]any) error {
	product, ok := s.items[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if v, ok := updates["name"].(string); ok {
		product.Name = v
	}
	if v, ok := updates["amount"].(int); ok {
		product.Amount = v
	}
	if v, ok := updates["comment"].(string); ok {
		product.Comment = v
	}
	product.UpdatedAt = time.Now().UTC()
	s.items[id] = product
	return nil
}

func (s *stubProductRepo) Touch(id string) error {
	product, ok := s.items[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.UpdatedAt = time.Now().UTC()
	s.items[id] = product
	return nil
}

func (s *stubProductRepo) DeleteByID(id string) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *stubProductRepo) ReassignPositions(ids []string) error {
	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			return repository.ErrProductNotFound
		}
	}
	for i, id := range ids {
		product := s.items[id]
		product.Position = i
		product.UpdatedAt = time.Now().UTC()
		s.items[id] = product
	}
	return nil
}

func TestProductServiceCreateValidation(t *testing.T) {
	svc := NewProductService(newStubProductRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, CreateProductInput{Name: "   "}); !errors.Is(err, ErrProductNameRequired) {
		t.Fatalf("expected ErrProductNameRequired, got %v", err)
	}
	if _, err := svc.Create(ctx, 1, CreateProductInput{Name: strings.Repeat("x", 121)}); !errors.Is(err, ErrProductNameTooLong) {
		t.Fatalf("expected ErrProductNameTooLong, got %v", err)
	}
	if _, err := svc.Create(ctx, 1, CreateProductInput{Name: "Milk", Amount: -1}); !errors.Is(err, ErrProductAmountNegative) {
		t.Fatalf("expected ErrProductAmountNegative, got %v", err)
	}
	if _, err := svc.Create(ctx, 1, CreateProductInput{Name: "Milk", Comment: strings.Repeat("x", 501)}); !errors.Is(err, ErrProductCommentTooLong) {
		t.Fatalf("expected ErrProductCommentTooLong, got %v", err)
	}
}

func TestProductServiceKeepsCommentVerbatim(t *testing.T) {
	svc := NewProductService(newStubProductRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateProductInput{Name: "  Milk  ", Comment: "  2% fat  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Milk" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.Comment != "  2% fat  " {
		t.Fatalf("expected comment stored as written, got %q", created.Comment)
	}

	note := "  oat, not dairy  "
	updated, err := svc.Update(ctx, 1, created.ID, UpdateProductInput{Comment: &note})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Comment != note {
		t.Fatalf("expected comment stored as written, got %q", updated.Comment)
	}
}

func TestProductServiceCreateAssignsPositions(t *testing.T) {
	svc := NewProductService(newStubProductRepo())
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, CreateProductInput{Name: "Milk", Amount: 2})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.Position != 0 {
		t.Fatalf("expected first product at position 0, got %d", first.Position)
	}

	second, err := svc.Create(ctx, 1, CreateProductInput{Name: "Bread", Amount: 1})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Position != 1 {
		t.Fatalf("expected second product at position 1, got %d", second.Position)
	}

	// Another owner's list starts at 0 again.
	other, err := svc.Create(ctx, 2, CreateProductInput{Name: "Eggs"})
	if err != nil {
		t.Fatalf("create for other owner: %v", err)
	}
	if other.Position != 0 {
		t.Fatalf("expected other owner's first product at position 0, got %d", other.Position)
	}
}

func TestProductServiceOwnershipMasking(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo)
	ctx := context.Background()

	mine, err := svc.Create(ctx, 1, CreateProductInput{Name: "Milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetByID(ctx, 2, mine.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected foreign get to report not found, got %v", err)
	}
	name := "Stolen"
	if _, err := svc.Update(ctx, 2, mine.ID, UpdateProductInput{Name: &name}); !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected foreign update to report not found, got %v", err)
	}
	if err := svc.DeleteByID(ctx, 2, mine.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected foreign delete to report not found, got %v", err)
	}

	// Owner still sees the untouched product.
	got, err := svc.GetByID(ctx, 1, mine.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.Name != "Milk" {
		t.Fatalf("expected product untouched, got %+v", got)
	}
}

func TestProductServiceUpdate(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateProductInput{Name: "Milk", Amount: 1, Comment: "2%"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "  Oat Milk  "
	amount := 3
	updated, err := svc.Update(ctx, 1, created.ID, UpdateProductInput{Name: &name, Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Oat Milk" || updated.Amount != 3 {
		t.Fatalf("unexpected updated product: %+v", updated)
	}
	if updated.Comment != "2%" {
		t.Fatalf("expected untouched comment to survive, got %q", updated.Comment)
	}

	bad := " "
	if _, err := svc.Update(ctx, 1, created.ID, UpdateProductInput{Name: &bad}); !errors.Is(err, ErrProductNameRequired) {
		t.Fatalf("expected ErrProductNameRequired, got %v", err)
	}
	negative := -2
	if _, err := svc.Update(ctx, 1, created.ID, UpdateProductInput{Amount: &negative}); !errors.Is(err, ErrProductAmountNegative) {
		t.Fatalf("expected ErrProductAmountNegative, got %v", err)
	}
}

func TestProductServiceEmptyUpdateBumpsTimestamp(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateProductInput{Name: "Milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := created.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	updated, err := svc.Update(ctx, 1, created.ID, UpdateProductInput{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if updated.Name != "Milk" || updated.Position != created.Position {
		t.Fatalf("expected unchanged fields, got %+v", updated)
	}
	if !updated.UpdatedAt.After(before) {
		t.Fatalf("expected updated_at to advance, before=%v after=%v", before, updated.UpdatedAt)
	}
}

func TestProductServiceReorder(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo)
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, CreateProductInput{Name: "A"})
	b, _ := svc.Create(ctx, 1, CreateProductInput{Name: "B"})
	c, _ := svc.Create(ctx, 1, CreateProductInput{Name: "C"})

	products, err := svc.Reorder(ctx, 1, []string{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	if products[0].ID != c.ID || products[1].ID != a.ID || products[2].ID != b.ID {
		t.Fatalf("unexpected order after reorder: %+v", products)
	}
	for i, p := range products {
		if p.Position != i {
			t.Fatalf("expected position %d for %s, got %d", i, p.Name, p.Position)
		}
	}
}

func TestProductServiceReorderValidation(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo)
	ctx := context.Background()

	mine, _ := svc.Create(ctx, 1, CreateProductInput{Name: "Mine"})
	foreign, _ := svc.Create(ctx, 2, CreateProductInput{Name: "Foreign"})

	if _, err := svc.Reorder(ctx, 1, nil); !errors.Is(err, ErrReorderEmpty) {
		t.Fatalf("expected ErrReorderEmpty, got %v", err)
	}
	if _, err := svc.Reorder(ctx, 1, []string{mine.ID, mine.ID}); !errors.Is(err, ErrReorderDuplicate) {
		t.Fatalf("expected ErrReorderDuplicate, got %v", err)
	}
	if _, err := svc.Reorder(ctx, 1, []string{mine.ID, foreign.ID}); !errors.Is(err, ErrReorderUnknownProduct) {
		t.Fatalf("expected ErrReorderUnknownProduct for foreign id, got %v", err)
	}
	if _, err := svc.Reorder(ctx, 1, []string{mine.ID, uuid.NewString()}); !errors.Is(err, ErrReorderUnknownProduct) {
		t.Fatalf("expected ErrReorderUnknownProduct for missing id, got %v", err)
	}

	// Failed reorders leave positions alone.
	got, err := svc.GetByID(ctx, 1, mine.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Position != 0 {
		t.Fatalf("expected position 0 after failed reorders, got %d", got.Position)
	}
}

func TestProductServiceReorderSubset(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo)
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, CreateProductInput{Name: "A"})
	b, _ := svc.Create(ctx, 1, CreateProductInput{Name: "B"})
	c, _ := svc.Create(ctx, 1, CreateProductInput{Name: "C"})

	// Moving just two items is allowed; untouched items keep their positions.
	if _, err := svc.Reorder(ctx, 1, []string{b.ID, a.ID}); err != nil {
		t.Fatalf("subset reorder: %v", err)
	}
	gotC, err := svc.GetByID(ctx, 1, c.ID)
	if err != nil {
		t.Fatalf("get c: %v", err)
	}
	if gotC.Position != 2 {
		t.Fatalf("expected untouched item to keep position 2, got %d", gotC.Position)
	}
}

func TestProductServiceDeleteFlow(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateProductInput{Name: "Milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteByID(ctx, 1, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, 1, created.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.DeleteByID(ctx, 1, created.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}
