package volume

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Region 镜像中 [start, end) 的字节区间, 常用于只扫描某个分区.
type Region struct {
	device     string
	startOff   int64
	endOff     int64
	handle     *io.SectionReader
	baseHandle *os.File
}

func (r *Region) Read(b []byte) (int, error) {
	return r.handle.Read(b)
}

func (r *Region) ReadAt(b []byte, off int64) (int, error) {
	return r.handle.ReadAt(b, off)
}

func (r *Region) Close() error {
	return r.baseHandle.Close()
}

func (r *Region) Type() string {
	return DevRegion
}

func (r *Region) Size() int64 {
	return r.endOff - r.startOff
}

func (r *Region) StartOffset() int64 {
	return r.startOff
}

func (r *Region) EndOffset() int64 {
	return r.endOff
}

func (r *Region) DevicePath() string {
	return r.device
}

func (r *Region) Repr() string {
	return fmt.Sprintf("RegionImage(dev=%s,region=%v-%v)", r.device, r.startOff, r.endOff)
}

// NewRegion 打开镜像的区间, end 为 0 时表示到镜像末尾. 超出镜像的部分被截断.
func NewRegion(device string, start, end int64) (Reader, error) {
	if start < 0 || (end != 0 && end < start) {
		return nil, errors.Errorf("invalid region %v-%v of %s", start, end, device)
	}
	base, size, err := openDevice(device)
	if err != nil {
		return nil, err
	}
	if end == 0 || end > size {
		end = size
	}
	if start > end {
		start = end
	}
	r := &Region{
		device:     device,
		startOff:   start,
		endOff:     end,
		baseHandle: base,
		handle:     io.NewSectionReader(base, start, end-start),
	}
	return r, nil
}
