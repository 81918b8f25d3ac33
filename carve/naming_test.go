package carve

import "testing"

func TestSequenceName(t *testing.T) {
	cases := map[int]string{
		0:    "000.jpg",
		7:    "007.jpg",
		42:   "042.jpg",
		999:  "999.jpg",
		1000: "1000.jpg",
	}
	for seq, want := range cases {
		if got := SequenceName(seq); got != want {
			t.Fatalf("SequenceName(%d)=%s want=%s", seq, got, want)
		}
	}
}

func TestNamerWithExt(t *testing.T) {
	n := NamerWithExt(4, "jpeg")
	if got := n(12); got != "0012.jpeg" {
		t.Fatalf("got=%s", got)
	}
	n = NamerWithExt(0, ".bin")
	if got := n(3); got != "3.bin" {
		t.Fatalf("got=%s", got)
	}
	n = NamerWithExt(2, "")
	if got := n(5); got != "05" {
		t.Fatalf("got=%s", got)
	}
}
