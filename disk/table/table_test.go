package table

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

func mbrImage(entries ...[3]uint32) []byte {
	img := make([]byte, 64*SectorSize)
	for i, e := range entries {
		off := mbrEntriesOffset + i*mbrEntrySize
		img[off+4] = byte(e[0])
		binary.LittleEndian.PutUint32(img[off+8:], e[1])
		binary.LittleEndian.PutUint32(img[off+12:], e[2])
	}
	img[510], img[511] = MBRSignature510, MBRSignature511
	return img
}

func TestPartitionsMBR(t *testing.T) {
	img := mbrImage([3]uint32{0x0C, 8, 16}, [3]uint32{0x05, 24, 8}, [3]uint32{0x83, 32, 4})
	dt, parts, err := Partitions(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("partitions: %v", err)
	}
	if dt != DTypeMBR || len(parts) != 2 {
		t.Fatalf("type=%s parts=%v", dt, parts)
	}
	if parts[0].Index != 1 || parts[0].Start != 8*SectorSize || parts[0].Size != 16*SectorSize || parts[0].Type != "0x0C" {
		t.Fatalf("part0=%+v", parts[0])
	}
	if parts[1].Index != 3 || parts[1].End() != 36*SectorSize {
		t.Fatalf("part1=%+v", parts[1])
	}
}

func TestPartitionsRAW(t *testing.T) {
	for _, img := range [][]byte{make([]byte, 4096), make([]byte, 100)} {
		dt, parts, err := Partitions(bytes.NewReader(img))
		if err != nil || dt != DTypeRAW || len(parts) != 0 {
			t.Fatalf("type=%s parts=%v err=%v", dt, parts, err)
		}
	}
}

func gptImage(entriesLBA uint64, count, entrySize uint32) []byte {
	img := mbrImage([3]uint32{mbrTypeProtective, 1, 63})
	hdr := img[SectorSize:]
	copy(hdr, GPTSignature)
	binary.LittleEndian.PutUint64(hdr[0x48:], entriesLBA)
	binary.LittleEndian.PutUint32(hdr[0x50:], count)
	binary.LittleEndian.PutUint32(hdr[0x54:], entrySize)
	return img
}

func TestPartitionsGPT(t *testing.T) {
	img := gptImage(2, 4, gptEntrySize)

	// 第2个表项: 基本数据分区, LBA 34-49.
	entry := img[2*SectorSize+gptEntrySize:]
	guid := []byte{0xA2, 0xA0, 0xD0, 0xEB, 0xE5, 0xB9, 0x33, 0x44, 0x87, 0xC0, 0x68, 0xB6, 0xB7, 0x26, 0x99, 0xC7}
	copy(entry, guid)
	binary.LittleEndian.PutUint64(entry[32:], 34)
	binary.LittleEndian.PutUint64(entry[40:], 49)
	for i, r := range utf16.Encode([]rune("card")) {
		binary.LittleEndian.PutUint16(entry[56+2*i:], r)
	}

	dt, parts, err := Partitions(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("partitions: %v", err)
	}
	if dt != DTypeGPT || len(parts) != 1 {
		t.Fatalf("type=%s parts=%v", dt, parts)
	}
	p := parts[0]
	if p.Index != 2 || p.Start != 34*SectorSize || p.Size != 16*SectorSize || p.Name != "card" {
		t.Fatalf("part=%+v", p)
	}
	if p.Type != "EBD0A0A2-B9E5-4433-87C0-68B6B72699C7" {
		t.Fatalf("type guid=%s", p.Type)
	}

	if _, err := Find(bytes.NewReader(img), 3); err == nil {
		t.Fatalf("expected missing partition error")
	}
	if got, err := Find(bytes.NewReader(img), 2); err != nil || got != p {
		t.Fatalf("find=%+v err=%v", got, err)
	}
}

func TestGUIDToString(t *testing.T) {
	if GUIDToString([]byte{1, 2}) != "" {
		t.Fatalf("short guid should give empty string")
	}
}

func TestPartitionsGPTCorruptHeader(t *testing.T) {
	cases := []struct {
		name       string
		entriesLBA uint64
		count      uint32
		entrySize  uint32
	}{
		{"huge entry size", 2, 128, 0x7FFFFFFF},
		{"negative entry size", 2, 128, 0xFFFFFF80},
		{"entry size not multiple of 128", 2, 4, 200},
		{"entry size too small", 2, 4, 64},
		{"entry size above 4096", 2, 4, 8192},
		{"zero entries", 2, 0, gptEntrySize},
		{"entries overlap header", 1, 4, gptEntrySize},
		{"entries lba overflows", 1 << 62, 4, gptEntrySize},
		{"entries lba negative", 1 << 63, 4, gptEntrySize},
	}
	for _, c := range cases {
		img := gptImage(c.entriesLBA, c.count, c.entrySize)
		dt, parts, err := Partitions(bytes.NewReader(img))
		if err == nil {
			t.Fatalf("%s: type=%s parts=%v, expected error", c.name, dt, parts)
		}
		if _, err = Find(bytes.NewReader(img), 1); err == nil {
			t.Fatalf("%s: find expected error", c.name)
		}
	}
}

func TestPartitionsGPTSkipsOverflowingEntry(t *testing.T) {
	img := gptImage(2, 4, gptEntrySize)
	entry := img[2*SectorSize:]
	entry[0] = 0x01
	binary.LittleEndian.PutUint64(entry[32:], 34)
	binary.LittleEndian.PutUint64(entry[40:], 1<<62)

	dt, parts, err := Partitions(bytes.NewReader(img))
	if err != nil || dt != DTypeGPT || len(parts) != 0 {
		t.Fatalf("type=%s parts=%v err=%v", dt, parts, err)
	}
}

func TestPartitionBrief(t *testing.T) {
	p := Partition{Index: 1, Start: 1024, Size: 2048, Type: "0x0C"}
	if got, want := p.Brief(), " 1         1024         2048 0x0C "; got != want {
		t.Fatalf("brief=%q want=%q", got, want)
	}
}
