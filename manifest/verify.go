package manifest

import (
	"context"
	"fmt"

	"github.com/kisun-bit/drcarve/util/logger"
	"go.uber.org/zap"
)

// Mismatch 一个与清单不一致的文件.
type Mismatch struct {
	Name     string
	WantSize int64
	GotSize  int64
	WantHash uint64
	GotHash  uint64
	Err      error
}

func (mm Mismatch) String() string {
	if mm.Err != nil {
		return fmt.Sprintf("%s: %v", mm.Name, mm.Err)
	}
	return fmt.Sprintf("%s: size %v/%v, xxhash %016x/%016x", mm.Name, mm.GotSize, mm.WantSize, mm.GotHash, mm.WantHash)
}

// Verify 重新计算 dir 中已创建文件的哈希并与清单比较, 返回全部不一致项.
func Verify(ctx context.Context, l *zap.SugaredLogger, dir string, m *Manifest, cores int) ([]Mismatch, error) {
	l = logger.OrDefault(l)
	entries := m.opened()
	results, err := digestAll(ctx, l, dir, entries, cores)
	if err != nil {
		return nil, err
	}
	var out []Mismatch
	for i, e := range entries {
		r := results[i]
		if r.err != nil || r.sum != e.Hash || r.size != e.Size {
			out = append(out, Mismatch{
				Name:     e.Name,
				WantSize: e.Size,
				GotSize:  r.size,
				WantHash: e.Hash,
				GotHash:  r.sum,
				Err:      r.err,
			})
		}
	}
	l.Debugf("Verify checked %v files, %v mismatched", len(entries), len(out))
	return out, nil
}
