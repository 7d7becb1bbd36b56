package kafka

import (
	"Marketplace/internal/api/config"
	"Marketplace/internal/pkg/changefeed"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	messagesConsumer sarama.ConsumerGroup
	messagesHandler  sarama.ConsumerGroupHandler
	messagesTopic    string
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, publisher changefeed.Publisher) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	messagesConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaMessageConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		messagesConsumer: messagesConsumer,
		messagesHandler:  NewMessagesHandler(publisher),
		messagesTopic:    cfg.KafkaMessageConsumer.Topic,
	}, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.messagesConsumer.Errors() {
			log.Error("Messages consumer group error", "err", err)
		}
	}()

	// 启动 Messages Consumer
	go func() {
		log.Info("Messages consumer started", "topic", m.messagesTopic)
		for {
			if err := m.messagesConsumer.Consume(ctx, []string{m.messagesTopic}, m.messagesHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.messagesConsumer.Close(); err != nil {
		log.Error("Failed to close messages consumer", "err", err)
	}
	return nil
}
