package dto

// ==================== 好友相关 DTO ====================

// SendFriendRequestRequest 发送好友申请请求 DTO（按昵称检索目标用户）
type SendFriendRequestRequest struct {
	DisplayName string `json:"displayName" binding:"required,min=1,max=32"` // 目标用户昵称
}

// SendFriendRequestResponse 发送好友申请响应 DTO
type SendFriendRequestResponse struct {
	ReceiverUUID string `json:"receiverUuid"` // 接收方UUID
}

// HandleFriendRequestRequest 处理好友申请请求 DTO（同意/拒绝）
type HandleFriendRequestRequest struct {
	SenderUUID string `json:"senderUuid" binding:"required"` // 发起方UUID
}

// CancelFriendRequestRequest 撤回好友申请请求 DTO
type CancelFriendRequestRequest struct {
	ReceiverUUID string `json:"receiverUuid" binding:"required"` // 接收方UUID
}

// RemoveFriendRequest 删除好友请求 DTO
type RemoveFriendRequest struct {
	FriendUUID string `json:"friendUuid" binding:"required"` // 好友UUID
}

// FriendRequestItem 好友申请 VO
type FriendRequestItem struct {
	SenderUUID          string `json:"senderUuid"`          // 发起方UUID
	SenderDisplayName   string `json:"senderDisplayName"`   // 发起方昵称
	ReceiverUUID        string `json:"receiverUuid"`        // 接收方UUID
	ReceiverDisplayName string `json:"receiverDisplayName"` // 接收方昵称
	Status              string `json:"status"`              // pending/accepted/rejected
	CreatedAt           int64  `json:"createdAt"`           // 申请时间（毫秒时间戳）
}

// FriendRequestListResponse 好友申请列表响应 DTO
type FriendRequestListResponse struct {
	Incoming []*FriendRequestItem `json:"incoming"` // 收到的待处理申请
	Outgoing []*FriendRequestItem `json:"outgoing"` // 发出的待处理申请
}

// FriendItem 好友 VO
type FriendItem struct {
	UUID        string `json:"uuid"`        // 好友UUID
	DisplayName string `json:"displayName"` // 昵称
	AvatarURL   string `json:"avatarUrl"`   // 头像url
	AvatarColor string `json:"avatarColor"` // 头像底色
}

// FriendListResponse 好友列表响应 DTO
type FriendListResponse struct {
	Items        []*FriendItem `json:"items"`        // 好友列表（去重后）
	RecentFriend string        `json:"recentFriend"` // 最近联系的好友UUID
}
