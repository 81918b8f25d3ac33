package manifest

import (
	"context"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/kisun-bit/drcarve/carve"
	"github.com/kisun-bit/drcarve/util/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Entry 一个已分配序号的切割文件.
type Entry struct {
	Seq    int
	Name   string
	Offset int64  // 起始块在源中的偏移.
	Size   int64  // 磁盘上的实际字节数.
	Hash   uint64 // xxhash64, 未创建的文件为 0.
	Opened bool
	Error  string
}

func (e *Entry) HashString() string {
	if !e.Opened {
		return ""
	}
	return fmt.Sprintf("%016x", e.Hash)
}

// Manifest 一次扫描的输出清单, 条目按序号排列.
type Manifest struct {
	Source          string
	BlockSize       int
	BlocksRead      int64
	BlocksDiscarded int64
	TrailingBytes   int
	Signature       string
	entries         *orderedmap.OrderedMap[string, *Entry]
}

func newManifest() *Manifest {
	return &Manifest{
		BlockSize: carve.BlockSize,
		entries:   orderedmap.NewOrderedMap[string, *Entry](),
	}
}

// FromReport 根据扫描结果建立清单骨架, 尚未计算哈希.
func FromReport(source string, report *carve.Report) *Manifest {
	m := newManifest()
	m.Source = source
	m.BlocksRead = report.BlocksRead
	m.BlocksDiscarded = report.BlocksDiscarded
	m.TrailingBytes = report.TrailingBytes
	for _, rec := range report.Files {
		e := &Entry{
			Seq:    rec.Seq,
			Name:   rec.Name,
			Offset: rec.Offset,
			Size:   rec.Size(),
			Opened: rec.Opened,
		}
		if rec.Err != nil {
			e.Error = rec.Err.Error()
		}
		m.entries.Set(e.Name, e)
	}
	return m
}

// Build 计算 dir 中每个已创建文件的哈希, 并生成清单签名.
// cores 为哈希并发数, 非法值时使用 DefaultCores.
func Build(ctx context.Context, l *zap.SugaredLogger, dir, source string, report *carve.Report, cores int) (*Manifest, error) {
	l = logger.OrDefault(l)
	if report == nil {
		return nil, errors.New("lack report")
	}
	m := FromReport(source, report)
	entries := m.opened()
	results, err := digestAll(ctx, l, dir, entries, cores)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		if results[i].err != nil {
			return nil, errors.Wrapf(results[i].err, "Build->digest(...), file=%s", e.Name)
		}
		e.Hash, e.Size = results[i].sum, results[i].size
	}
	if m.Signature, err = Signature(m); err != nil {
		return nil, err
	}
	l.Debugf("Build manifest of %v files, signature=%s", m.Len(), m.Signature)
	return m, nil
}

// Entries 按序号顺序返回全部条目.
func (m *Manifest) Entries() []*Entry {
	out := make([]*Entry, 0, m.entries.Len())
	for el := m.entries.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

func (m *Manifest) Get(name string) (*Entry, bool) {
	return m.entries.Get(name)
}

func (m *Manifest) Len() int {
	return m.entries.Len()
}

// TotalBytes 全部已创建文件的字节数之和.
func (m *Manifest) TotalBytes() int64 {
	var n int64
	for _, e := range m.opened() {
		n += e.Size
	}
	return n
}

func (m *Manifest) opened() []*Entry {
	var out []*Entry
	for el := m.entries.Front(); el != nil; el = el.Next() {
		if el.Value.Opened {
			out = append(out, el.Value)
		}
	}
	return out
}

func (m *Manifest) Repr() string {
	return fmt.Sprintf("Manifest(source=%s,files=%v,bytes=%v,signature=%s)",
		m.Source, m.Len(), m.TotalBytes(), m.Signature)
}
