package manifest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/kisun-bit/drcarve/carve"
	"github.com/kisun-bit/drcarve/util/logger"
	"github.com/pkg/errors"
)

func block(sig bool, fill byte) []byte {
	b := bytes.Repeat([]byte{fill}, carve.BlockSize)
	if sig {
		copy(b, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	}
	return b
}

func testImage() []byte {
	var parts [][]byte
	for i := 0; i < 12; i++ {
		parts = append(parts, block(i%3 == 1, byte(i)))
	}
	return bytes.Join(parts, nil)
}

func carveInto(t *testing.T, data []byte) (string, *carve.Report) {
	t.Helper()
	dir := t.TempDir()
	r, err := carve.ScanDir(context.Background(), bytes.NewReader(data), dir, carve.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return dir, r
}

func TestBuildHashesInSequenceOrder(t *testing.T) {
	dir, r := carveInto(t, testImage())
	m, err := Build(context.Background(), logger.Nop(), dir, "card.raw", r, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Len() != 4 {
		t.Fatalf("entries=%d want 4", m.Len())
	}
	for i, e := range m.Entries() {
		if e.Seq != i || e.Name != carve.SequenceName(i) {
			t.Fatalf("entry %d = %+v", i, e)
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if e.Hash != xxhash.Sum64(b) || e.Size != int64(len(b)) {
			t.Fatalf("%s hash=%x size=%d", e.Name, e.Hash, e.Size)
		}
	}
	if m.TotalBytes() != 11*carve.BlockSize {
		t.Fatalf("total=%d want=%d", m.TotalBytes(), 11*carve.BlockSize)
	}
	if m.Signature == "" {
		t.Fatalf("signature not set")
	}
}

func TestSignatureDeterministic(t *testing.T) {
	data := testImage()
	var sigs []string
	for i := 0; i < 2; i++ {
		dir, r := carveInto(t, data)
		m, err := Build(context.Background(), logger.Nop(), dir, "card.raw", r, i+1)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		sigs = append(sigs, m.Signature)
	}
	if sigs[0] != sigs[1] {
		t.Fatalf("signatures differ: %s %s", sigs[0], sigs[1])
	}

	data[2*carve.BlockSize+10] ^= 0xFF
	dir, r := carveInto(t, data)
	m, err := Build(context.Background(), logger.Nop(), dir, "card.raw", r, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Signature == sigs[0] {
		t.Fatalf("signature should change with content")
	}
}

func TestSaveLoad(t *testing.T) {
	dir, r := carveInto(t, testImage())
	r.Files = append(r.Files, carve.FileRecord{
		Seq:  len(r.Files),
		Name: carve.SequenceName(len(r.Files)),
		Err:  &carve.FileWriteError{Op: carve.OpOpen, Err: errors.New("denied")},
	})
	m, err := Build(context.Background(), logger.Nop(), dir, "card.raw", r, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "report.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Signature != m.Signature || got.Len() != m.Len() || got.BlocksRead != m.BlocksRead {
		t.Fatalf("loaded %s want %s", got.Repr(), m.Repr())
	}
	want, have := m.Entries(), got.Entries()
	for i := range want {
		if *want[i] != *have[i] {
			t.Fatalf("entry %d: got=%+v want=%+v", i, *have[i], *want[i])
		}
	}
	failed, ok := got.Get("004.jpg")
	if !ok || failed.Opened || failed.Error == "" {
		t.Fatalf("failed entry=%+v", failed)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Parse([]byte(`{"files":[{"seq":0}]}`)); err == nil {
		t.Fatalf("expected error for nameless entry")
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	dir, r := carveInto(t, testImage())
	m, err := Build(context.Background(), logger.Nop(), dir, "card.raw", r, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	mm, err := Verify(context.Background(), logger.Nop(), dir, m, 2)
	if err != nil || len(mm) != 0 {
		t.Fatalf("clean verify: mismatches=%v err=%v", mm, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "001.jpg"), []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "003.jpg")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	mm, err = Verify(context.Background(), logger.Nop(), dir, m, 2)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(mm) != 2 || mm[0].Name != "001.jpg" || mm[1].Name != "003.jpg" || mm[1].Err == nil {
		t.Fatalf("mismatches=%v", mm)
	}
}

func TestBuildMissingFile(t *testing.T) {
	dir, r := carveInto(t, testImage())
	if err := os.Remove(filepath.Join(dir, "000.jpg")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := Build(context.Background(), logger.Nop(), dir, "card.raw", r, 2); err == nil {
		t.Fatalf("expected error for missing carved file")
	}
}
