package models

import "time"

// TurnRole 定义了会话中一条消息的发送方。
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
	RoleSystem    TurnRole = "system"
)

// Turn 是会话历史中的一条记录，按追加顺序保存在 Redis 列表或本地缓存中。
type Turn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
