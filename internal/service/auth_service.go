package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shelfly/shelfly-backend/internal/config"
	"github.com/shelfly/shelfly-backend/internal/domain"
)

type AuthService struct {
	cfg      *config.Config
	oauthSvc *OAuthService
	tokenSvc *TokenService
	userSvc  *UserService
}

type LoginResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"-"`
	RefreshToken string       `json:"-"`
	CSRFToken    string       `json:"csrf_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at,omitempty"`
}

func NewAuthService(cfg *config.Config, oauthSvc *OAuthService, tokenSvc *TokenService, userSvc *UserService) *AuthService {
	return &AuthService{cfg: cfg, oauthSvc: oauthSvc, tokenSvc: tokenSvc, userSvc: userSvc}
}

func (s *AuthService) GoogleLoginURL(state string) string {
	return s.oauthSvc.LoginURL(state)
}

func (s *AuthService) LoginWithGoogleCode(code, ua, ip string) (*LoginResult, error) {
	user, err := s.oauthSvc.HandleGoogleCallback(context.Background(), code)
	if err != nil {
		return nil, err
	}
	_ = s.userSvc.userRepo.MarkLogin(user.ID, time.Now().UTC())
	access, refresh, csrf, err := s.tokenSvc.Issue(user, ua, ip)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh, CSRFToken: csrf, ExpiresAt: time.Now().Add(s.cfg.JWTAccessTTL)}, nil
}

func (s *AuthService) Refresh(refreshToken, ua, ip string) (*LoginResult, error) {
	access, newRefresh, csrf, uid, err := s.tokenSvc.Rotate(refreshToken, s.userSvc.GetByID, ua, ip)
	if err != nil {
		return nil, err
	}
	u, err := s.userSvc.GetByID(uid)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, AccessToken: access, RefreshToken: newRefresh, CSRFToken: csrf, ExpiresAt: time.Now().Add(s.cfg.JWTAccessTTL)}, nil
}

func (s *AuthService) Logout(userID uint) error {
	return s.tokenSvc.RevokeAll(userID)
}

func (s *AuthService) ParseUserID(subject string) (uint, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user subject")
	}
	return uint(id), nil
}
