package volume

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// RAW 整个镜像文件或块设备.
type RAW struct {
	device string
	size   int64
	handle *os.File
	stream *io.SectionReader
}

func (r *RAW) Read(b []byte) (int, error) {
	return r.stream.Read(b)
}

func (r *RAW) ReadAt(b []byte, off int64) (int, error) {
	return r.handle.ReadAt(b, off)
}

func (r *RAW) Close() error {
	return r.handle.Close()
}

func (r *RAW) Type() string {
	return DevRAW
}

func (r *RAW) Size() int64 {
	return r.size
}

func (r *RAW) StartOffset() int64 {
	return 0
}

func (r *RAW) EndOffset() int64 {
	return r.size
}

func (r *RAW) DevicePath() string {
	return r.device
}

func (r *RAW) Repr() string {
	return fmt.Sprintf("RawImage(dev=%s,size=%v)", r.device, r.size)
}

func NewRAW(device string) (Reader, error) {
	handle, size, err := openDevice(device)
	if err != nil {
		return nil, err
	}
	r := &RAW{device: device, size: size, handle: handle}
	r.stream = io.NewSectionReader(handle, 0, size)
	return r, nil
}

// openDevice 打开设备并获取其大小, 块设备的大小通过定位到末尾获得.
func openDevice(device string) (*os.File, int64, error) {
	handle, err := os.Open(device)
	if err != nil {
		return nil, 0, &SourceOpenError{Path: device, Err: err}
	}
	fi, err := handle.Stat()
	if err != nil {
		_ = handle.Close()
		return nil, 0, &SourceOpenError{Path: device, Err: err}
	}
	if fi.IsDir() {
		_ = handle.Close()
		return nil, 0, &SourceOpenError{Path: device, Err: errors.New("is a directory")}
	}
	size := fi.Size()
	if fi.Mode()&os.ModeDevice != 0 {
		if size, err = handle.Seek(0, io.SeekEnd); err != nil {
			_ = handle.Close()
			return nil, 0, &SourceOpenError{Path: device, Err: err}
		}
		if _, err = handle.Seek(0, io.SeekStart); err != nil {
			_ = handle.Close()
			return nil, 0, &SourceOpenError{Path: device, Err: err}
		}
	}
	adviseSequential(handle)
	return handle, size, nil
}
