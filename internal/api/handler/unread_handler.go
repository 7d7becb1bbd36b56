package handler

import (
	"Marketplace/internal/api/dto"
	"Marketplace/internal/pkg/consts"
	"Marketplace/internal/pkg/response"
	"Marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type UnreadHandler struct {
	unreadService service.UnreadService
}

func NewUnreadHandler(unreadService service.UnreadService) *UnreadHandler {
	return &UnreadHandler{unreadService: unreadService}
}

// GetUnread 当前未读数
func (s *UnreadHandler) GetUnread(c *gin.Context) {
	userID := c.GetString(consts.UserIDKey)
	res, err := s.unreadService.GetUnread(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkAsRead 标记会话已读
func (s *UnreadHandler) MarkAsRead(c *gin.Context) {
	var req dto.MarkAsReadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetString(consts.UserIDKey)
	if err := s.unreadService.MarkAsRead(c.Request.Context(), userID, req.ConversationID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Refetch 重新全量校准
func (s *UnreadHandler) Refetch(c *gin.Context) {
	userID := c.GetString(consts.UserIDKey)
	res, err := s.unreadService.Refetch(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ListNotifications 提醒存档
func (s *UnreadHandler) ListNotifications(c *gin.Context) {
	var req dto.NotificationListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetString(consts.UserIDKey)
	res, err := s.unreadService.ListNotifications(c.Request.Context(), userID, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
