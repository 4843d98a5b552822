package ctxmeta

import "context"

type ctxKey string

const (
	// KeyTraceID 链路追踪 id，gin 中间件注入，贯穿整条调用链
	KeyTraceID = "trace_id"
	// KeyUserUUID 当前登录用户 uuid，认证中间件注入
	KeyUserUUID = "user_uuid"
	// KeyClientIP 客户端真实 IP
	KeyClientIP = "client_ip"
)

// WithTraceID 注入 trace_id
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey(KeyTraceID), traceID)
}

// TraceID 读取 trace_id，不存在时返回空串
func TraceID(ctx context.Context) string {
	return value(ctx, KeyTraceID)
}

// WithUserUUID 注入当前用户 uuid
func WithUserUUID(ctx context.Context, uuid string) context.Context {
	return context.WithValue(ctx, ctxKey(KeyUserUUID), uuid)
}

// UserUUID 读取当前用户 uuid，不存在时返回空串
func UserUUID(ctx context.Context) string {
	return value(ctx, KeyUserUUID)
}

// WithClientIP 注入客户端 IP
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey(KeyClientIP), ip)
}

// ClientIP 读取客户端 IP
func ClientIP(ctx context.Context) string {
	return value(ctx, KeyClientIP)
}

// value 同时兼容自定义 key 与 gin.Context 的字符串 key。
// gin 的 c.Set 使用 string 作为 key，handler 直接把 *gin.Context 当
// context.Context 下传时也能取到。
func value(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey(key)).(string); ok {
		return v
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
