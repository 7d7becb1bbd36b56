package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
jwt:
  secret: file-secret
notifier:
  resync_spec: "@every 1m"
  participant_cache_ttl: 60
kafka:
  brokers: ["k1:9092", "k2:9092"]
kafka_message_consumer:
  topic: canal-messages
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Notifier.ResyncSpec != "@every 1m" {
		t.Errorf("notifier.resync_spec = %q, want @every 1m", cfg.Notifier.ResyncSpec)
	}
	if cfg.Notifier.ParticipantCacheTTL != 60 {
		t.Errorf("notifier.participant_cache_ttl = %d, want 60", cfg.Notifier.ParticipantCacheTTL)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("kafka.brokers = %v, want 2 brokers", cfg.Kafka.Brokers)
	}
	if cfg.KafkaMessageConsumer.Topic != "canal-messages" {
		t.Errorf("topic = %q, want canal-messages", cfg.KafkaMessageConsumer.Topic)
	}
	// 未配置的字段取默认值
	if cfg.Notifier.ChangeChannel != "im:changes:messages" {
		t.Errorf("notifier.change_channel = %q, want default", cfg.Notifier.ChangeChannel)
	}
	if cfg.KafkaMessageConsumer.GroupID != "marketplace-im-relay" {
		t.Errorf("group_id = %q, want default", cfg.KafkaMessageConsumer.GroupID)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if !cfg.Notifier.ArchiveEnable {
		t.Error("notifier.archive_enable should default to true")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("jwt:\n  secret: file-secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("jwt.secret = %q, want env-secret", cfg.JWT.Secret)
	}
}
