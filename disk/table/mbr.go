package table

import (
	"bytes"
	"fmt"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	MBRSignature510        = 0x55
	MBRSignature511        = 0xAA
	MBRPartitionEntryCount = 4
	mbrEntriesOffset       = 0x01BE
	mbrEntrySize           = 16
)

const (
	mbrTypeEmpty      = 0x00
	mbrTypeExtendCHS  = 0x05
	mbrTypeExtendLBA  = 0x0F
	mbrTypeLinuxExt   = 0x85
	mbrTypeProtective = 0xEE
)

var errNoBootSignature = errors.New("invalid boot signature for mbr")

// MBRPartition MBR磁盘的主分区表项结构, 多字节字段均为小端序.
type MBRPartition struct {
	Index         int    `struc:"skip"`
	BootIndicator byte   // 0x00, 1.
	StartingCHS   []byte `struc:"[3]byte"`       // 0x01, 3.
	PartitionType byte   // 0x04, 1.
	EndingCHS     []byte `struc:"[3]byte"`       // 0x05, 3.
	StartingLBA   int64  `struc:"uint32,little"` // 0x08, 4, 起始LBA(包含).
	TotalSectors  int64  `struc:"uint32,little"` // 0x0c, 4, 总扇区数.
}

func (p MBRPartition) IsEmpty() bool {
	return p.PartitionType == mbrTypeEmpty || p.TotalSectors == 0
}

func (p MBRPartition) IsExtend() bool {
	switch p.PartitionType {
	case mbrTypeExtendCHS, mbrTypeExtendLBA, mbrTypeLinuxExt:
		return true
	}
	return false
}

// MBR 位于LBA0的主引导记录.
type MBR struct {
	Entries [MBRPartitionEntryCount]MBRPartition
}

// ReadMBR 读取并解析 LBA0.
func ReadMBR(disk io.ReaderAt) (*MBR, error) {
	bin := make([]byte, SectorSize)
	if _, err := disk.ReadAt(bin, 0); err != nil {
		if err == io.EOF {
			return nil, errNoBootSignature
		}
		return nil, errors.Wrap(err, "ReadMBR->ReadAt(...)")
	}
	if bin[510] != MBRSignature510 || bin[511] != MBRSignature511 {
		return nil, errNoBootSignature
	}
	mbr := &MBR{}
	for i := range mbr.Entries {
		off := mbrEntriesOffset + i*mbrEntrySize
		if err := struc.Unpack(bytes.NewReader(bin[off:off+mbrEntrySize]), &mbr.Entries[i]); err != nil {
			return nil, errors.Wrapf(err, "ReadMBR->Unpack(...), entry=%v", i)
		}
		mbr.Entries[i].Index = i + 1
	}
	return mbr, nil
}

// IsProtective 存在 0xEE 表项时为 GPT 的保护性MBR.
func (mbr *MBR) IsProtective() bool {
	for _, p := range mbr.Entries {
		if p.PartitionType == mbrTypeProtective {
			return true
		}
	}
	return false
}

// Partitions 非空且非扩展的主分区.
func (mbr *MBR) Partitions() []Partition {
	var parts []Partition
	for _, p := range mbr.Entries {
		if p.IsEmpty() || p.IsExtend() {
			continue
		}
		parts = append(parts, Partition{
			Index: p.Index,
			Start: p.StartingLBA * SectorSize,
			Size:  p.TotalSectors * SectorSize,
			Type:  fmt.Sprintf("0x%02X", p.PartitionType),
		})
	}
	return parts
}
