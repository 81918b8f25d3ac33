package volume

import (
	"github.com/kisun-bit/drcarve/disk/table"
	"github.com/kisun-bit/drcarve/util/logger"
	"github.com/pkg/errors"
)

// OpenPartition 解析镜像的分区表, 打开编号为 index 的分区区间.
func OpenPartition(path string, index int) (Reader, error) {
	raw, err := NewRAW(path)
	if err != nil {
		return nil, err
	}
	part, err := table.Find(raw, index)
	_ = raw.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "OpenPartition->Find(...), image=%s", path)
	}
	logger.Debugf("OpenPartition %s: %s", path, part.Brief())
	return NewRegion(path, part.Start, part.End())
}
