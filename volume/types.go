package volume

import (
	"fmt"
	"io"
)

const (
	DevRAW    = "raw"
	DevRegion = "region"
)

// Reader 待扫描的源镜像, 既可顺序读取也可随机读取.
type Reader interface {
	io.Reader
	io.ReaderAt
	io.Closer
	// Size 可读取的字节数.
	Size() int64
	StartOffset() int64
	EndOffset() int64
	Type() string
	DevicePath() string
	Repr() string
}

// SourceOpenError 源镜像无法打开或读取, 此时不会产生任何输出.
type SourceOpenError struct {
	Path string
	Err  error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("source image %q cannot be opened for reading: %v", e.Path, e.Err)
}

func (e *SourceOpenError) Unwrap() error {
	return e.Err
}

// Open 根据区间参数打开源镜像, length 为 0 且 offset 为 0 时打开整个镜像.
func Open(path string, offset, length int64) (Reader, error) {
	if offset == 0 && length == 0 {
		return NewRAW(path)
	}
	end := int64(0)
	if length > 0 {
		end = offset + length
	}
	return NewRegion(path, offset, end)
}
