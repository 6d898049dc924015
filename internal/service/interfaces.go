package service

import (
	"context"

	"github.com/shelfly/shelfly-backend/internal/domain"
)

type ProductService interface {
	List(ctx context.Context, ownerID uint) ([]domain.Product, error)
	GetByID(ctx context.Context, ownerID uint, id string) (*domain.Product, error)
	Create(ctx context.Context, ownerID uint, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, ownerID uint, id string, input UpdateProductInput) (*domain.Product, error)
	DeleteByID(ctx context.Context, ownerID uint, id string) error
	Reorder(ctx context.Context, ownerID uint, ids []string) ([]domain.Product, error)
}

type AuthServiceInterface interface {
	GoogleLoginURL(state string) string
	LoginWithGoogleCode(code, ua, ip string) (*LoginResult, error)
	Refresh(refreshToken, ua, ip string) (*LoginResult, error)
	Logout(userID uint) error
	ParseUserID(subject string) (uint, error)
}

type UserServiceInterface interface {
	GetByID(id uint) (*domain.User, error)
}
