package table

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

type DiskType string

const (
	DTypeGPT DiskType = "GPT"
	DTypeMBR DiskType = "MBR"
	DTypeRAW DiskType = "RAW"
)

// SectorSize 分区表使用的逻辑扇区大小.
const SectorSize = 512

// Partition 分区在镜像中的字节区间.
type Partition struct {
	Index int // 从1开始, 与分区表中的表项顺序一致.
	Start int64
	Size  int64
	Type  string
	Name  string
}

func (p Partition) End() int64 {
	return p.Start + p.Size
}

func (p Partition) Brief() string {
	return fmt.Sprintf("%2d %12d %12d %s %s", p.Index, p.Start, p.Size, p.Type, p.Name)
}

// GUIDToString 将 mixed endian 的原始GUID转换为字符串.
// 注意: byteGuid 的长度只能等于16, 否则将返回空串.
func GUIDToString(byteGuid []byte) string {
	if len(byteGuid) != 16 {
		return ""
	}
	order := [...]int{3, 2, 1, 0, -1, 5, 4, -1, 7, 6, -1, 8, 9, -1, 10, 11, 12, 13, 14, 15}
	var sb strings.Builder
	for _, i := range order {
		if i == -1 {
			sb.WriteByte('-')
			continue
		}
		sb.WriteString(hex.EncodeToString(byteGuid[i : i+1]))
	}
	return strings.ToUpper(sb.String())
}

// Partitions 解析镜像起始处的分区表, 无分区表时返回 DTypeRAW 与空列表.
// MBR 仅返回主分区, 扩展分区中的逻辑分区不展开.
func Partitions(disk io.ReaderAt) (DiskType, []Partition, error) {
	mbr, err := ReadMBR(disk)
	if err != nil {
		if errors.Cause(err) == errNoBootSignature {
			return DTypeRAW, nil, nil
		}
		return DTypeRAW, nil, err
	}
	if mbr.IsProtective() {
		gpt, err := ReadGPT(disk)
		if err != nil {
			return DTypeGPT, nil, err
		}
		return DTypeGPT, gpt.Partitions(), nil
	}
	return DTypeMBR, mbr.Partitions(), nil
}

// Find 返回编号为 index 的分区.
func Find(disk io.ReaderAt, index int) (Partition, error) {
	dt, parts, err := Partitions(disk)
	if err != nil {
		return Partition{}, err
	}
	for _, p := range parts {
		if p.Index == index {
			return p, nil
		}
	}
	return Partition{}, errors.Errorf("partition %v not found on %s disk (%v partitions)", index, dt, len(parts))
}
