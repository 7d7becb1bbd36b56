package kafka

import (
	"Marketplace/internal/pkg/changefeed"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
)

// MessagesHandler 消费 messages 表的 binlog，按提交顺序转发到变更频道
type MessagesHandler struct {
	publisher changefeed.Publisher
}

func NewMessagesHandler(publisher changefeed.Publisher) *MessagesHandler {
	return &MessagesHandler{publisher: publisher}
}

func (s *MessagesHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("messages consumer setup")
	return nil
}

func (s *MessagesHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("messages consumer cleanup")
	return nil
}

func (s *MessagesHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-messages consume claim", "partition", claim.Partition())
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-messages process batch error", "err", err)
		return err
	}
	return nil
}

func (s *MessagesHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, changefeed.TableMessages)
	if err != nil {
		// 其他表、DDL、空数据都不是错误，直接跳过
		if errors.Is(err, ErrTableNotMatch) || errors.Is(err, ErrEmptyData) {
			return nil
		}
		// 无法解析的消息重试也没用
		log.WarnContext(ctx, "skip undecodable canal message", "offset", msg.Offset, "err", err)
		return nil
	}

	for _, env := range ToEnvelopes(canalMsg) {
		if err = s.publisher.Publish(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// ToEnvelopes 将一条 canal 消息拆成逐行的变更信封
func ToEnvelopes(msg *CanalMessage) []*changefeed.Envelope {
	if !msg.IsRowChange() {
		return nil
	}

	envs := make([]*changefeed.Envelope, 0, len(msg.Data))
	for i, row := range msg.Data {
		env := &changefeed.Envelope{
			Type:  msg.Type,
			Table: msg.Table,
			New:   row,
			TS:    msg.TS,
		}
		if msg.Type == UPDATE {
			env.Old = msg.OldRow(i)
		}
		envs = append(envs, env)
	}
	return envs
}
