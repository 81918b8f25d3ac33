package carve

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const sinkBufferSize = 64 << 10

// Sink 输出文件的创建者.
type Sink interface {
	Create(name string) (io.WriteCloser, error)
}

// DirSink 在本地目录中创建输出文件.
type DirSink struct {
	Dir string
}

// NewDirSink 确保目录存在后返回 DirSink.
func NewDirSink(dir string) (*DirSink, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	return &DirSink{Dir: dir}, nil
}

func (s *DirSink) Create(name string) (io.WriteCloser, error) {
	fp, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return newBufferedFile(fp), nil
}

// Path 返回文件名在目录中的完整路径.
func (s *DirSink) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// EnsureDir 检查输出目录, 不存在时创建.
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return &DirectoryError{Dir: dir, Err: errors.New("not a directory")}
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return &DirectoryError{Dir: dir, Err: err}
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return &DirectoryError{Dir: dir, Err: err}
	}
	return nil
}

// Committer 由带缓冲的输出文件实现, 报告已交给底层文件的字节数.
// 缓冲中尚未刷新的数据不计入.
type Committer interface {
	Committed() int64
}

// bufferedFile 经 bufio 缓冲写入底层文件, 写入错误可能延迟到缓冲刷新时才出现.
type bufferedFile struct {
	f *countingWriter
	w *bufio.Writer
}

func newBufferedFile(f io.WriteCloser) *bufferedFile {
	cw := &countingWriter{WriteCloser: f}
	return &bufferedFile{f: cw, w: bufio.NewWriterSize(cw, sinkBufferSize)}
}

func (b *bufferedFile) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

// Close 刷新缓冲后关闭文件, 两者的错误合并返回.
func (b *bufferedFile) Close() error {
	return multierr.Append(b.w.Flush(), b.f.Close())
}

func (b *bufferedFile) Committed() int64 {
	return b.f.n
}

type countingWriter struct {
	io.WriteCloser
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.WriteCloser.Write(p)
	c.n += int64(n)
	return n, err
}
