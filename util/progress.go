package util

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

// ProgressReader 统计经过的字节数, 并按固定周期回调.
type ProgressReader struct {
	reader  io.Reader
	count   atomic.Int64
	started time.Time
}

func (pr *ProgressReader) Read(buf []byte) (int, error) {
	n, err := pr.reader.Read(buf)
	pr.count.Add(int64(n))
	return n, err
}

// Count 已读取的字节数.
func (pr *ProgressReader) Count() int64 {
	return pr.count.Load()
}

// Elapsed 自创建起经过的时间.
func (pr *ProgressReader) Elapsed() time.Duration {
	return time.Since(pr.started)
}

// NewProgressReader 包装 reader, 每隔 period 调用一次 cb, 直到 ctx 结束或调用返回的 stop.
func NewProgressReader(
	ctx context.Context, cb func(byteCount int64, d time.Duration),
	reader io.Reader, period time.Duration) (*ProgressReader, func()) {
	self := &ProgressReader{
		reader:  reader,
		started: time.Now(),
	}

	subCtx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(period)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-subCtx.Done():
				return

			case <-ticker.C:
				cb(self.Count(), self.Elapsed())
			}
		}
	}()

	return self, cancel
}

// BytesPerSecond 计算吞吐, d 为 0 时返回 0.
func BytesPerSecond(n int64, d time.Duration) uint64 {
	if d <= 0 || n <= 0 {
		return 0
	}
	return uint64(float64(n) / d.Seconds())
}
