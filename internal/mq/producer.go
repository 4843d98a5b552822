package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageSentEvent 消息发送事件，下游消费做推送/统计
type MessageSentEvent struct {
	ChannelID  string `json:"channelId"`
	MessageID  string `json:"messageId"`
	SenderUUID string `json:"senderUuid"`
	SentAt     int64  `json:"sentAt"` // 毫秒时间戳
}

// Producer 消息事件生产者。
// 未配置 broker 时为空实现，发送直接成功。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建生产者
func NewProducer(cfg config.KafkaConfig) *Producer {
	if !cfg.Enabled {
		return &Producer{}
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: cfg.WriteTimeout,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// PublishMessageSent 投递消息发送事件。
// 按 channelID 作为分区键，同一会话的事件保序。
func (p *Producer) PublishMessageSent(ctx context.Context, channelID, messageID, senderUUID string) error {
	if p.writer == nil {
		return nil
	}

	payload, err := json.Marshal(MessageSentEvent{
		ChannelID:  channelID,
		MessageID:  messageID,
		SenderUUID: senderUUID,
		SentAt:     time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(channelID),
		Value: payload,
	})
}

// Close 关闭底层 writer，未启用时为空操作
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		logger.Warn(context.Background(), "关闭事件生产者失败", logger.ErrorField(err))
		return err
	}
	return nil
}
