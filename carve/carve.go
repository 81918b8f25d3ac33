package carve

import (
	"context"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/kisun-bit/drcarve/util/basic"
	"github.com/kisun-bit/drcarve/util/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Option func(*Carver)

// WithLogger 指定日志器, nil 时使用全局日志器.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Carver) {
		c.logger = l
	}
}

// WithNamer 指定输出文件的命名策略.
func WithNamer(n Namer) Option {
	return func(c *Carver) {
		if n != nil {
			c.namer = n
		}
	}
}

// Carver 按块扫描源数据, 将以签名块开头的连续块序列切割为独立文件.
// Carver 本身不保存扫描状态, 可被重复使用.
type Carver struct {
	logger *zap.SugaredLogger
	namer  Namer
}

func New(opts ...Option) *Carver {
	c := &Carver{namer: SequenceName}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDefault(c.logger)
	return c
}

// state 单次扫描期间的切割状态: 当前打开的输出文件与序号计数器.
type state struct {
	out io.WriteCloser
	cur int // 当前输出文件在 Report.Files 中的下标.
	seq int
}

// Scan 使用默认配置扫描 source 并写入 sink.
func Scan(ctx context.Context, source io.Reader, sink Sink, opts ...Option) (*Report, error) {
	return New(opts...).Scan(ctx, source, sink)
}

// ScanDir 确保 dir 存在后扫描 source, 输出文件写入 dir.
// 目录无法创建时返回 *DirectoryError, 此时不会读取任何数据.
func ScanDir(ctx context.Context, source io.Reader, dir string, opts ...Option) (*Report, error) {
	sink, err := NewDirSink(dir)
	if err != nil {
		return nil, err
	}
	return New(opts...).Scan(ctx, source, sink)
}

// Scan 顺序读取 source 的每个 BlockSize 大小的块:
// 块首为签名时关闭当前文件并以下一序号创建新文件, 否则追加到当前文件, 无打开文件时丢弃.
// 不足一块的尾部数据既不检测也不写入.
// 任何返回路径上, 当前打开的输出文件都恰好被关闭一次.
func (c *Carver) Scan(ctx context.Context, source io.Reader, sink Sink) (report *Report, err error) {
	if source == nil || sink == nil {
		return nil, errors.New("lack source or sink")
	}
	report = &Report{}
	st := &state{cur: -1}
	defer c.release(st, report)

	block := make([]byte, BlockSize)
	var offset int64
	for {
		if basic.Cancelled(ctx) {
			return report, errors.Wrapf(ctx.Err(), "Scan cancelled at offset %v", offset)
		}
		n, er := io.ReadFull(source, block)
		if er == io.EOF || er == io.ErrUnexpectedEOF {
			report.TrailingBytes = n
			if n > 0 {
				c.logger.Debugf("Scan ignored trailing %v bytes at offset %v", n, offset)
			}
			break
		}
		if er != nil {
			return report, errors.Wrapf(er, "Scan->ReadFull(...), offset=%v", offset)
		}
		report.BlocksRead++

		if IsSignature(block) {
			c.rotate(st, sink, report, offset)
		}
		if st.out != nil {
			c.write(st, report, block)
		} else {
			report.BlocksDiscarded++
		}
		offset += BlockSize
	}

	c.logger.Debugf("Scan finished: %s", report)
	return report, nil
}

// rotate 关闭当前文件, 分配下一序号并创建新文件.
// 无论创建是否成功, 序号都会前进.
func (c *Carver) rotate(st *state, sink Sink, report *Report, offset int64) {
	c.release(st, report)

	seq := st.seq
	st.seq++
	name := c.namer(seq)
	report.Files = append(report.Files, FileRecord{Seq: seq, Name: name, Offset: offset})
	st.cur = len(report.Files) - 1

	w, err := sink.Create(name)
	if err != nil {
		c.fail(report, st.cur, OpOpen, err)
		return
	}
	report.Files[st.cur].Opened = true
	st.out = w
	c.logger.Debugf("Scan opened %s at offset %v", name, offset)
}

// write 追加一个完整块, 失败后关闭当前文件, 后续块直到下一签名前都被丢弃.
func (c *Carver) write(st *state, report *Report, block []byte) {
	if _, err := st.out.Write(block); err != nil {
		c.fail(report, st.cur, OpWrite, err)
		report.BlocksDiscarded++
		c.release(st, report)
		return
	}
	report.Files[st.cur].Blocks++
}

func (c *Carver) release(st *state, report *Report) {
	if st.out == nil {
		return
	}
	out := st.out
	st.out = nil
	rec := &report.Files[st.cur]
	err := out.Close()
	if cm, ok := out.(Committer); ok {
		// 缓冲中未能落盘的块按丢弃计.
		if kept := cm.Committed() / BlockSize; kept < rec.Blocks {
			report.BlocksDiscarded += rec.Blocks - kept
			rec.Blocks = kept
		}
	}
	if err != nil {
		c.fail(report, st.cur, OpClose, err)
		return
	}
	c.logger.Debugf("Scan closed %s, blocks=%v, size=%s", rec.Name, rec.Blocks, humanize.IBytes(uint64(rec.Size())))
}

// fail 记录首个错误, 已有错误时保留原错误.
func (c *Carver) fail(report *Report, idx int, op string, err error) {
	rec := &report.Files[idx]
	fe := &FileWriteError{Seq: rec.Seq, Name: rec.Name, Op: op, Err: err}
	c.logger.Warnf("Scan %v", fe)
	if rec.Err == nil {
		rec.Err = fe
	}
}
