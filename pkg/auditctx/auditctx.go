package auditctx

import "context"

// Info 请求级审计元数据。在变更请求进入业务逻辑前写入context，
// 存储层写钩子读取它为审计记录补齐操作人/租户/来源信息，
// 业务代码无需在每层函数签名里透传这四个值。
type Info struct {
	UserID    uint   `json:"user_id,omitempty"`
	TenantID  uint   `json:"tenant_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ctxKey struct{}

// With 返回携带审计元数据的派生context。嵌套调用时内层覆盖外层，
// 只在内层调用树内生效。
func With(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// From 读取当前context上的审计元数据。
// 未经With注入时返回零值Info，调用方按"系统/未认证"处理，不得报错。
func From(ctx context.Context) Info {
	if ctx == nil {
		return Info{}
	}
	if info, ok := ctx.Value(ctxKey{}).(Info); ok {
		return info
	}
	return Info{}
}

// IsZero 是否为空上下文（无操作人、无租户）
func (i Info) IsZero() bool {
	return i == Info{}
}
