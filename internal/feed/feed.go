package feed

import (
	"sort"
	"strings"

	"github.com/bhavyaajainn/chatly/model"
)

// 消息类型预览文案，文本缺失时按附件类型回退。
const (
	PreviewPhoto = "📷 Photo"
	PreviewFile  = "📄 File"
	PreviewGif   = "GIF"
)

// ResolveChannelID 计算两个用户的会话 id：uuid 升序后下划线拼接。
// 参数顺序无关，resolve(a, b) == resolve(b, a)。
func ResolveChannelID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// SplitChannelID 从会话 id 还原参与者（升序）。格式非法时返回 false。
func SplitChannelID(channelID string) (string, string, bool) {
	idx := strings.Index(channelID, "_")
	if idx <= 0 || idx == len(channelID)-1 {
		return "", "", false
	}
	return channelID[:idx], channelID[idx+1:], true
}

// VisibleTo 判断消息对指定用户是否可见。
// 出现在 delete_by 中即表示该用户已在己方删除。
func VisibleTo(msg *model.Message, userUUID string) bool {
	for _, uid := range msg.DeleteBy {
		if uid == userUUID {
			return false
		}
	}
	return true
}

// FilterVisible 过滤出对指定用户可见的消息。
func FilterVisible(msgs []model.Message, userUUID string) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for i := range msgs {
		if VisibleTo(&msgs[i], userUUID) {
			out = append(out, msgs[i])
		}
	}
	return out
}

// DerivePreview 计算会话列表的最近消息预览。
// 优先级：文本 > 图片 > 文件 > GIF，全空返回空串。
func DerivePreview(text string, imageCount, fileCount int, gifURL string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	if imageCount > 0 {
		return PreviewPhoto
	}
	if fileCount > 0 {
		return PreviewFile
	}
	if gifURL != "" {
		return PreviewGif
	}
	return ""
}

// PreviewOf 对已构造的消息计算预览文案。
func PreviewOf(msg *model.Message) string {
	return DerivePreview(msg.Text, len(msg.ImageUrls), len(msg.Files), msg.GifUrl)
}

// Phase 订阅生命周期：关闭 -> 加载中 -> 实时。
type Phase int

const (
	PhaseClosed  Phase = iota // 未订阅
	PhaseLoading              // 已订阅，等待首个快照
	PhaseLive                 // 已收到快照，持续接收更新
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLive:
		return "live"
	default:
		return "closed"
	}
}

// State 单个订阅者视角的会话状态。
type State struct {
	Phase      Phase
	ChannelID  string
	ViewerUUID string
	Messages   []model.Message
}

// NewState 创建订阅初始状态（Loading，等待首个快照）。
func NewState(channelID, viewerUUID string) State {
	return State{
		Phase:      PhaseLoading,
		ChannelID:  channelID,
		ViewerUUID: viewerUUID,
	}
}

// Reconcile 纯函数：用存储快照推导新状态。
// 不在原地修改 prior，方便在测试里对任意 (prior, snapshot) 组合断言。
// 快照按 (created_at, id) 升序排列，并过滤掉订阅者已删除的消息。
func Reconcile(prior State, snapshot []model.Message) State {
	visible := FilterVisible(snapshot, prior.ViewerUUID)
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].Id < visible[j].Id
		}
		return visible[i].CreatedAt.Before(visible[j].CreatedAt)
	})

	return State{
		Phase:      PhaseLive,
		ChannelID:  prior.ChannelID,
		ViewerUUID: prior.ViewerUUID,
		Messages:   visible,
	}
}
