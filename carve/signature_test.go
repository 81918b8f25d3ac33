package carve

import "testing"

func TestIsSignature(t *testing.T) {
	cases := []struct {
		name  string
		block []byte
		want  bool
	}{
		{"app0", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, true},
		{"app1", []byte{0xFF, 0xD8, 0xFF, 0xE1}, true},
		{"app15", []byte{0xFF, 0xD8, 0xFF, 0xEF}, true},
		{"dqt", []byte{0xFF, 0xD8, 0xFF, 0xDB}, false},
		{"high nibble f", []byte{0xFF, 0xD8, 0xFF, 0xF0}, false},
		{"bad soi", []byte{0xFF, 0xD9, 0xFF, 0xE0}, false},
		{"bad prefix", []byte{0xFE, 0xD8, 0xFF, 0xE0}, false},
		{"short", []byte{0xFF, 0xD8, 0xFF}, false},
		{"empty", nil, false},
	}
	for _, c := range cases {
		if got := IsSignature(c.block); got != c.want {
			t.Fatalf("%s: got=%v want=%v", c.name, got, c.want)
		}
	}
}

func TestIsSignatureAllMarkers(t *testing.T) {
	for m := 0; m < 256; m++ {
		got := IsSignature([]byte{0xFF, 0xD8, 0xFF, byte(m)})
		want := m >= 0xE0 && m <= 0xEF
		if got != want {
			t.Fatalf("marker %#x: got=%v want=%v", m, got, want)
		}
	}
}
