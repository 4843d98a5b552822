package model

import "time"

// FileMeta 文件附件元信息
type FileMeta struct {
	Name string `json:"name"` // 原始文件名
	Url  string `json:"url"`  // 存储访问地址
}

// Message 会话消息。
// 约束：channel_id 为双方 uuid 排序后用下划线拼接；delete_by 记录已在
// 己方删除该消息的用户，双方都删除后物理删除整行。
type Message struct {
	Id         int64      `gorm:"column:id;primaryKey;comment:消息id(雪花)"`
	ChannelId  string     `gorm:"column:channel_id;type:varchar(64);not null;index:idx_channel_created;comment:会话id"`
	SenderUuid string     `gorm:"column:sender_uuid;type:char(20);not null;comment:发送方uuid"`
	Text       string     `gorm:"column:text;type:text;comment:文本内容"`
	ImageUrls  []string   `gorm:"column:image_urls;type:json;serializer:json;comment:图片url列表"`
	Files      []FileMeta `gorm:"column:files;type:json;serializer:json;comment:文件附件列表"`
	GifUrl     string     `gorm:"column:gif_url;type:varchar(512);comment:gif地址"`
	DeleteBy   []string   `gorm:"column:delete_by;type:json;serializer:json;comment:已删除方uuid列表"`
	CreatedAt  time.Time  `gorm:"column:created_at;index:idx_channel_created;autoCreateTime"`
}

func (Message) TableName() string { return "message" }
