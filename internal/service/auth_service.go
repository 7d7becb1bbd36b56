package service

import (
	"Marketplace/internal/pkg/redis"
	"Marketplace/internal/pkg/security"
	"context"
	log "log/slog"
)

type AuthService interface {
	// Logout 吊销 Token 并关闭该用户的实时会话
	Logout(ctx context.Context, token string) error
}

type authServiceImpl struct {
	sessions SessionManager
}

func NewAuthService(sessions SessionManager) AuthService {
	return &authServiceImpl{sessions: sessions}
}

func (s *authServiceImpl) Logout(ctx context.Context, token string) error {
	claims, err := security.ValidateToken(token)
	if err != nil {
		return ErrMissingLoginToken
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return ErrMissingLoginToken
	}
	if err = redis.RevokeToken(ctx, signature, security.RemainingTTL(claims)); err != nil {
		return err
	}

	s.sessions.StopUser(claims.UserID)
	log.InfoContext(ctx, "user logged out", "userID", claims.UserID)
	return nil
}
