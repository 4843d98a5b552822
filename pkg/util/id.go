package util

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
	idNodeErr  error
)

// InitIDNode 初始化雪花节点，nodeID 取值范围 [0, 1023]。
// 多实例部署时通过 CHATLY_NODE_ID 区分，避免 id 冲突。
func InitIDNode(nodeID int64) error {
	idNodeOnce.Do(func() {
		idNode, idNodeErr = snowflake.NewNode(nodeID)
	})
	return idNodeErr
}

// NextID 生成雪花 id。
func NextID() int64 {
	if idNode == nil {
		// 未显式初始化时退化为 0 号节点，单实例部署可直接使用
		if err := InitIDNode(0); err != nil {
			panic(fmt.Sprintf("snowflake init: %v", err))
		}
	}
	return idNode.Generate().Int64()
}

// NextUUID 生成字符串形式的雪花 id，用作用户/消息 uuid（最长 19 位十进制）。
func NextUUID() string {
	return FormatID(NextID())
}

// FormatID 雪花 id 转字符串，前端用 int64 会丢精度。
func FormatID(id int64) string {
	return fmt.Sprintf("%d", id)
}
