package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户状态
const (
	UserStatusNormal   int8 = 0 // 正常
	UserStatusDisabled int8 = 1 // 禁用
)

// UserInfo 用户基础信息。
// 约束：uuid 由雪花算法生成（char(20)）；display_name 全局唯一，好友申请按昵称检索。
type UserInfo struct {
	Id            int64          `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uuid          string         `gorm:"column:uuid;type:char(20);not null;uniqueIndex;comment:用户uuid"`
	Email         string         `gorm:"column:email;type:varchar(128);not null;uniqueIndex;comment:邮箱"`
	Password      string         `gorm:"column:password;type:varchar(128);not null;comment:密码(bcrypt)"`
	DisplayName   string         `gorm:"column:display_name;type:varchar(64);not null;uniqueIndex;comment:昵称"`
	AvatarUrl     string         `gorm:"column:avatar_url;type:varchar(255);comment:头像url"`
	AvatarColor   string         `gorm:"column:avatar_color;type:varchar(32);comment:头像底色 hsl"`
	EmailVerified bool           `gorm:"column:email_verified;not null;default:0;comment:邮箱是否已验证"`
	Status        int8           `gorm:"column:status;not null;default:0;comment:用户状态 0.正常 1.禁用"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserInfo) TableName() string { return "user_info" }
