//go:build linux

package volume

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential 提示内核按顺序预读, 失败不影响读取.
func adviseSequential(fp *os.File) {
	_ = unix.Fadvise(int(fp.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
