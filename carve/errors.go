package carve

import (
	"fmt"
)

const (
	OpOpen  = "open"
	OpWrite = "write"
	OpClose = "close"
)

// DirectoryError 输出目录不存在且无法创建, 扫描开始前即失败.
type DirectoryError struct {
	Dir string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("output directory %q: %v", e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// FileWriteError 单个输出文件的打开、写入或关闭失败.
// 此类错误不会终止扫描, 仅记录在对应的 FileRecord 中.
type FileWriteError struct {
	Seq  int
	Name string
	Op   string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("%s %s (seq=%d): %v", e.Op, e.Name, e.Seq, e.Err)
}

func (e *FileWriteError) Unwrap() error {
	return e.Err
}
