package model

import (
	"time"

	"gorm.io/gorm"
)

// 好友申请状态
const (
	RequestStatusPending  int8 = 0 // 待处理
	RequestStatusAccepted int8 = 1 // 已同意
	RequestStatusRejected int8 = 2 // 已拒绝
)

// RequestStatusText 状态码转对外文案
var RequestStatusText = map[int8]string{
	RequestStatusPending:  "pending",
	RequestStatusAccepted: "accepted",
	RequestStatusRejected: "rejected",
}

// FriendRequest 好友申请记录，方向为 sender -> receiver。
// 约束：uniqueIndex:uidx_sender_receiver 确保同方向不重复申请；
// 已同意的记录同时承载好友关系，删除好友即物理删除该记录。
type FriendRequest struct {
	Id                  int64          `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	SenderUuid          string         `gorm:"column:sender_uuid;type:char(20);not null;uniqueIndex:uidx_sender_receiver;comment:发起方uuid"`
	ReceiverUuid        string         `gorm:"column:receiver_uuid;type:char(20);not null;index;uniqueIndex:uidx_sender_receiver;comment:接收方uuid"`
	SenderDisplayName   string         `gorm:"column:sender_display_name;type:varchar(64);not null;comment:发起方昵称快照"`
	ReceiverDisplayName string         `gorm:"column:receiver_display_name;type:varchar(64);not null;comment:接收方昵称快照"`
	Status              int8           `gorm:"column:status;not null;default:0;comment:申请状态 0.待处理 1.已同意 2.已拒绝"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt           gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (FriendRequest) TableName() string { return "friend_request" }
