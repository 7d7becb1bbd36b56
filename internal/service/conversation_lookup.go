package service

import (
	"Marketplace/internal/model"
	"Marketplace/internal/pkg/consts"
	"Marketplace/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const defaultSubject = "新消息"

// ConversationInfo 参与者校验与通知文案需要的会话信息
type ConversationInfo struct {
	ID             string `json:"id"`
	BuyerID        string `json:"buyer_id"`
	SellerID       string `json:"seller_id"`
	AnnouncementID string `json:"announcement_id"`
	Subject        string `json:"subject"`
}

// HasParticipant 用户是否为会话双方之一
func (c *ConversationInfo) HasParticipant(userID string) bool {
	if c == nil || userID == "" {
		return false
	}
	return c.BuyerID == userID || c.SellerID == userID
}

// ConversationLookup 会话信息查询（带缓存）
type ConversationLookup interface {
	Lookup(ctx context.Context, convID string) (*ConversationInfo, error)
}

type conversationLookupImpl struct {
	convRepo repository.ConversationRepo
	rdb      *redis.Client
	ttl      time.Duration
	group    singleflight.Group
}

// NewConversationLookup rdb 为 nil 时不走缓存
func NewConversationLookup(convRepo repository.ConversationRepo, rdb *redis.Client, ttl time.Duration) ConversationLookup {
	return &conversationLookupImpl{convRepo: convRepo, rdb: rdb, ttl: ttl}
}

// Lookup 先查 Redis，未命中回源 MySQL；同一会话的并发查询合并为一次
func (s *conversationLookupImpl) Lookup(ctx context.Context, convID string) (*ConversationInfo, error) {
	if convID == "" {
		return nil, ErrConversation
	}
	if info := s.fromCache(ctx, convID); info != nil {
		return info, nil
	}

	v, err, _ := s.group.Do(convID, func() (interface{}, error) {
		conv, err := s.convRepo.GetConversation(ctx, convID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrConversation
			}
			return nil, err
		}
		info := toConversationInfo(conv)
		s.toCache(ctx, info)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ConversationInfo), nil
}

func (s *conversationLookupImpl) fromCache(ctx context.Context, convID string) *ConversationInfo {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, consts.IMConversationKey+convID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WarnContext(ctx, "conversation cache read failed", "convID", convID, "err", err)
		}
		return nil
	}
	var info ConversationInfo
	if err = json.Unmarshal(data, &info); err != nil {
		return nil
	}
	return &info
}

func (s *conversationLookupImpl) toCache(ctx context.Context, info *ConversationInfo) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err = s.rdb.Set(ctx, consts.IMConversationKey+info.ID, data, s.ttl).Err(); err != nil {
		log.WarnContext(ctx, "conversation cache write failed", "convID", info.ID, "err", err)
	}
}

func toConversationInfo(conv *model.Conversation) *ConversationInfo {
	subject := conv.Announcement.Title
	if subject == "" {
		subject = defaultSubject
	}
	return &ConversationInfo{
		ID:             conv.ID,
		BuyerID:        conv.BuyerID,
		SellerID:       conv.SellerID,
		AnnouncementID: conv.AnnouncementID,
		Subject:        subject,
	}
}
