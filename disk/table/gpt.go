package table

import (
	"bytes"
	"io"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	GPTSignature           = "EFI PART"
	GPTMaxPartitionEntries = 128
	gptEntrySize           = 128
	gptMaxEntrySize        = 4096
)

// GPTHeader 位于GPT磁盘LBA1的头数据, 仅解析定位分区表项所需的字段.
type GPTHeader struct {
	Signature                 []byte `struc:"[8]byte"`       // 0x00, 8, "EFI PART".
	Revision                  uint32 `struc:"uint32,little"` // 0x08, 4.
	HeaderSize                uint32 `struc:"uint32,little"` // 0x0C, 4.
	HeaderCRC32               uint32 `struc:"uint32,little"` // 0x10, 4.
	Reserved                  []byte `struc:"[4]byte"`       // 0x14, 4.
	CurrentLBA                int64  `struc:"int64,little"`  // 0x18, 8.
	BackupLBA                 int64  `struc:"int64,little"`  // 0x20, 8.
	FirstUsableLBA            int64  `struc:"int64,little"`  // 0x28, 8.
	LastUsableLBA             int64  `struc:"int64,little"`  // 0x30, 8.
	GUID                      []byte `struc:"[16]byte"`      // 0x38, 16.
	StartingLBAForPartEntries int64  `struc:"int64,little"`  // 0x48, 8.
	NumberOfPartEntriesArray  int    `struc:"int32,little"`  // 0x50, 4.
	PartEntrySize             int    `struc:"int32,little"`  // 0x54, 4.
	PartEntriesArrayCRC32     uint32 `struc:"uint32,little"` // 0x58, 4.
}

// GPTPartitionEntry GPT分区表项.
type GPTPartitionEntry struct {
	Index         int    `struc:"skip"`
	PartTypeGUID  []byte `struc:"[16]byte"`
	UniqGUID      []byte `struc:"[16]byte"`
	FirstLBA      int64  `struc:"int64,little"`
	LastLBA       int64  `struc:"int64,little"`
	Attributes    uint64 `struc:"uint64,little"`
	PartitionName []byte `struc:"[72]byte"` // UTF-16LE.
}

func (e *GPTPartitionEntry) IsEmpty() bool {
	return bytes.Equal(e.PartTypeGUID, make([]byte, 16))
}

func (e *GPTPartitionEntry) DecodedPartitionName() string {
	u := make([]uint16, 0, len(e.PartitionName)/2)
	for i := 0; i+1 < len(e.PartitionName); i += 2 {
		u = append(u, uint16(e.PartitionName[i])|uint16(e.PartitionName[i+1])<<8)
	}
	return strings.TrimRight(string(utf16.Decode(u)), "\x00")
}

type GPT struct {
	Header  GPTHeader
	Entries []GPTPartitionEntry
}

// ReadGPT 读取LBA1的GPT头及其分区表项.
func ReadGPT(disk io.ReaderAt) (*GPT, error) {
	bin := make([]byte, SectorSize)
	if _, err := disk.ReadAt(bin, SectorSize); err != nil {
		return nil, errors.Wrap(err, "ReadGPT->ReadAt(...), header")
	}
	gpt := &GPT{}
	if err := struc.Unpack(bytes.NewReader(bin), &gpt.Header); err != nil {
		return nil, errors.Wrap(err, "ReadGPT->Unpack(...), header")
	}
	h := &gpt.Header
	if string(h.Signature) != GPTSignature {
		return nil, errors.New("invalid gpt signature")
	}
	// 表项大小为 128 的整数倍, 表项数组位于 LBA1 之后.
	if h.PartEntrySize < gptEntrySize || h.PartEntrySize > gptMaxEntrySize ||
		h.PartEntrySize%gptEntrySize != 0 || h.NumberOfPartEntriesArray <= 0 {
		return nil, errors.Errorf("invalid gpt entry layout, size=%v count=%v", h.PartEntrySize, h.NumberOfPartEntriesArray)
	}
	if h.StartingLBAForPartEntries < 2 || h.StartingLBAForPartEntries > math.MaxInt64/SectorSize {
		return nil, errors.Errorf("invalid gpt entry array lba %v", h.StartingLBAForPartEntries)
	}
	count := h.NumberOfPartEntriesArray
	if count > GPTMaxPartitionEntries {
		count = GPTMaxPartitionEntries
	}
	arr := make([]byte, count*h.PartEntrySize)
	if _, err := disk.ReadAt(arr, h.StartingLBAForPartEntries*SectorSize); err != nil {
		return nil, errors.Wrap(err, "ReadGPT->ReadAt(...), entries")
	}
	for i := 0; i < count; i++ {
		var e GPTPartitionEntry
		off := i * h.PartEntrySize
		if err := struc.Unpack(bytes.NewReader(arr[off:off+gptEntrySize]), &e); err != nil {
			return nil, errors.Wrapf(err, "ReadGPT->Unpack(...), entry=%v", i)
		}
		e.Index = i + 1
		gpt.Entries = append(gpt.Entries, e)
	}
	return gpt, nil
}

func (gpt *GPT) Partitions() []Partition {
	var parts []Partition
	for i := range gpt.Entries {
		e := &gpt.Entries[i]
		if e.IsEmpty() || e.FirstLBA < 0 || e.LastLBA < e.FirstLBA || e.LastLBA >= math.MaxInt64/SectorSize {
			continue
		}
		parts = append(parts, Partition{
			Index: e.Index,
			Start: e.FirstLBA * SectorSize,
			Size:  (e.LastLBA - e.FirstLBA + 1) * SectorSize,
			Type:  GUIDToString(e.PartTypeGUID),
			Name:  e.DecodedPartitionName(),
		})
	}
	return parts
}
