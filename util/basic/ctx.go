package basic

import "context"

// Cancelled 非阻塞地判断 ctx 是否已结束, 用于循环中逐次检查.
func Cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
