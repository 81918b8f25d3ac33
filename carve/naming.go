package carve

import (
	"fmt"
	"strings"
)

const (
	DefaultNameWidth = 3
	DefaultExt       = ".jpg"
)

// Namer 根据序号生成输出文件名, 同一序号必须得到同一文件名.
type Namer func(seq int) string

// SequenceName 默认命名策略: 3位补零的十进制序号加 .jpg 后缀.
// 序号超过 999 时位宽自然扩展(如 1000.jpg), 文件名仍唯一.
var SequenceName = NamerWithExt(DefaultNameWidth, DefaultExt)

// NamerWithExt 构造指定位宽与后缀的命名策略.
func NamerWithExt(width int, ext string) Namer {
	if width < 1 {
		width = 1
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return func(seq int) string {
		return fmt.Sprintf("%0*d%s", width, seq, ext)
	}
}
