package kafka

import (
	"Marketplace/internal/api/config"
	"time"

	"github.com/IBM/sarama"
)

const clientID = "marketplace-unread-relay"

// newSaramaConfig 只用于消费 canal 变更。
// 从最新位点开始：离线期间的变更由会话启动时的全量校准兜底，无需回放
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = clientID

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	// 重平衡时尽量保留原有分区，减少同一会话的事件在实例间漂移
	c.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}

	c.Consumer.Group.Session.Timeout = seconds(kafkaCfg.Consumer.SessionTimeout)
	c.Consumer.Group.Heartbeat.Interval = seconds(kafkaCfg.Consumer.HeartbeatInterval)
	c.Consumer.Group.Rebalance.Timeout = seconds(kafkaCfg.Consumer.RebalanceTimeout)
	c.Consumer.Offsets.AutoCommit.Enable = false
	c.Consumer.MaxProcessingTime = seconds(kafkaCfg.Consumer.MaxProcessingTime)

	return c
}

// seconds 未配置时返回 0，交给 sarama 的 Validate 报错
func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
