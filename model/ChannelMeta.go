package model

import "time"

// ChannelMeta 会话元数据，每次发送消息时 upsert。
// 约束：channel_id 唯一；user_a/user_b 为参与者 uuid 升序存储。
type ChannelMeta struct {
	Id            int64      `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	ChannelId     string     `gorm:"column:channel_id;type:varchar(64);not null;uniqueIndex;comment:会话id"`
	UserAUuid     string     `gorm:"column:user_a_uuid;type:char(20);not null;index;comment:参与者A uuid(较小)"`
	UserBUuid     string     `gorm:"column:user_b_uuid;type:char(20);not null;index;comment:参与者B uuid(较大)"`
	LastMessage   string     `gorm:"column:last_message;type:varchar(255);comment:最近一条消息预览"`
	LastMessageAt *time.Time `gorm:"column:last_message_at;comment:最近消息时间"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChannelMeta) TableName() string { return "channel_meta" }
