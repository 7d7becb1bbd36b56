package handler

import (
	"Marketplace/internal/pkg/consts"
	"Marketplace/internal/pkg/response"
	"Marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService service.AuthService
}

func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Logout 退出登录，同时关闭实时会话
func (s *UserHandler) Logout(c *gin.Context) {
	token := c.GetString(consts.TokenKey)
	if token == "" {
		response.Error(c, service.ErrMissingLoginToken)
		return
	}
	if err := s.authService.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
