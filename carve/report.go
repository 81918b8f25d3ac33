package carve

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
)

// FileRecord 一个已分配序号的输出文件.
type FileRecord struct {
	Seq    int
	Name   string
	Offset int64 // 触发块在源中的偏移.
	Blocks int64 // 已写入的完整块数, 文件关闭后只计已交给底层文件的块.
	Opened bool  // 输出文件是否创建成功.
	Err    error // 打开、写入或关闭失败时的 *FileWriteError.
}

// Size 已写入的字节数, 总是 BlockSize 的整数倍.
func (r FileRecord) Size() int64 {
	return r.Blocks * BlockSize
}

// Report 一次扫描的结果, 出错返回时同样有效.
type Report struct {
	BlocksRead      int64
	BlocksDiscarded int64
	TrailingBytes   int
	Files           []FileRecord
}

// Count 成功创建的输出文件数量.
func (r *Report) Count() int {
	n := 0
	for _, f := range r.Files {
		if f.Opened {
			n++
		}
	}
	return n
}

// Sequences 扫描结束时的序号计数器, 等于签名匹配次数.
func (r *Report) Sequences() int {
	return len(r.Files)
}

// Failures 返回带有错误的记录.
func (r *Report) Failures() []FileRecord {
	var failed []FileRecord
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Err 合并全部单文件错误, 无错误时返回 nil.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Files {
		err = multierr.Append(err, f.Err)
	}
	return err
}

func (r *Report) BytesRead() int64 {
	return r.BlocksRead*BlockSize + int64(r.TrailingBytes)
}

func (r *Report) String() string {
	return fmt.Sprintf("Report(blocks=%v,read=%s,discarded=%v,trailing=%v,files=%v,written=%v,failed=%v)",
		r.BlocksRead, humanize.IBytes(uint64(r.BytesRead())), r.BlocksDiscarded, r.TrailingBytes,
		r.Sequences(), r.Count(), len(r.Failures()))
}
