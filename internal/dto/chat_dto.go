package dto

// ==================== 聊天相关 DTO ====================

// SendMessageRequest 发送消息请求 DTO。
// 附件走同一 multipart 表单的 files 字段，按检测到的
// Content-Type 归类为图片或文件。
type SendMessageRequest struct {
	PeerUUID string `form:"peerUuid" binding:"required"`          // 对端用户UUID
	Text     string `form:"text" binding:"omitempty,max=4096"`    // 文本内容
	GifURL   string `form:"gifUrl" binding:"omitempty,max=512"`   // GIF地址（Giphy搜索结果）
}

// FileItem 文件附件 VO
type FileItem struct {
	Name string `json:"name"` // 原始文件名
	URL  string `json:"url"`  // 访问地址
}

// MessageItem 消息 VO
type MessageItem struct {
	ID         string     `json:"id"`         // 消息id
	ChannelID  string     `json:"channelId"`  // 会话id
	SenderUUID string     `json:"senderUuid"` // 发送方UUID
	Text       string     `json:"text"`       // 文本内容
	ImageURLs  []string   `json:"imageUrls"`  // 图片url列表
	Files      []FileItem `json:"files"`      // 文件附件列表
	GifURL     string     `json:"gifUrl"`     // gif地址
	Timestamp  int64      `json:"timestamp"`  // 发送时间（毫秒时间戳）
}

// MessageListResponse 消息列表响应 DTO
type MessageListResponse struct {
	ChannelID string         `json:"channelId"` // 会话id
	Items     []*MessageItem `json:"items"`     // 消息列表（升序）
}

// ChannelItem 会话 VO
type ChannelItem struct {
	ChannelID     string `json:"channelId"`     // 会话id
	PeerUUID      string `json:"peerUuid"`      // 对端用户UUID
	LastMessage   string `json:"lastMessage"`   // 最近消息预览
	LastMessageAt int64  `json:"lastMessageAt"` // 最近消息时间（毫秒时间戳）
}

// ChannelListResponse 会话列表响应 DTO
type ChannelListResponse struct {
	Items []*ChannelItem `json:"items"` // 会话列表，按最近消息时间倒序
}

// DeleteChatRequest 删除会话请求 DTO（仅对当前用户隐藏）
type DeleteChatRequest struct {
	PeerUUID string `json:"peerUuid" binding:"required"` // 对端用户UUID
}

// GifSearchRequest GIF 搜索请求 DTO
type GifSearchRequest struct {
	Query string `form:"q" binding:"required,min=1,max=64"`         // 搜索词
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`    // 返回条数
}

// GifItem GIF 搜索结果 VO
type GifItem struct {
	ID    string `json:"id"`    // Giphy id
	Title string `json:"title"` // 标题
	URL   string `json:"url"`   // fixed_height 渲染地址
}

// GifSearchResponse GIF 搜索响应 DTO
type GifSearchResponse struct {
	Items []*GifItem `json:"items"` // 搜索结果
}
