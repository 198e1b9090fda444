package bc7_test

import (
	"bytes"
	"testing"

	"github.com/anibuddy/bc7-encoder/bc7"
)

func TestDDSRoundTrip(t *testing.T) {
	const w, h = 20, 8
	src := testImage(t, w, h, 11)

	enc, err := bc7.NewEncoder(bc7.OpaqueVeryFast())
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	blocks := make([]byte, bc7.BlocksByteSize(w, h))
	if err := enc.Encode(blocks, src, w, h, w*4); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	hdr := bc7.DDSHeader{Width: w, Height: h}
	file, err := bc7.MarshalDDS(hdr, blocks)
	if err != nil {
		t.Fatalf("MarshalDDS: %v", err)
	}

	got, payload, err := bc7.ParseDDS(file)
	if err != nil {
		t.Fatalf("ParseDDS: %v", err)
	}
	if got != hdr {
		t.Fatalf("header round-trip: got %+v, want %+v", got, hdr)
	}
	if !bytes.Equal(payload, blocks) {
		t.Fatalf("payload round-trip mismatch")
	}
}

func TestDDSHeaderBlockCount(t *testing.T) {
	h := bc7.DDSHeader{Width: 17, Height: 5}
	bx, by, total, err := h.BlockCount()
	if err != nil {
		t.Fatalf("BlockCount: %v", err)
	}
	if bx != 5 || by != 2 || total != 10 {
		t.Fatalf("got %dx%d total %d, want 5x2 total 10", bx, by, total)
	}

	if _, _, _, err := (bc7.DDSHeader{}).BlockCount(); err == nil {
		t.Fatalf("zero header accepted")
	}
}

func TestParseDDSErrors(t *testing.T) {
	hdr := bc7.DDSHeader{Width: 4, Height: 4}
	file, err := bc7.MarshalDDS(hdr, make([]byte, bc7.BlockBytes))
	if err != nil {
		t.Fatalf("MarshalDDS: %v", err)
	}

	short := file[:40]
	if _, _, err := bc7.ParseDDS(short); err == nil {
		t.Errorf("short file accepted")
	}

	badMagic := append([]byte(nil), file...)
	badMagic[0] = 'X'
	if _, _, err := bc7.ParseDDS(badMagic); err == nil {
		t.Errorf("bad magic accepted")
	}

	badFormat := append([]byte(nil), file...)
	badFormat[128] = 77 // not BC7_UNORM
	if _, _, err := bc7.ParseDDS(badFormat); err == nil {
		t.Errorf("wrong DXGI format accepted")
	}

	truncated := file[:len(file)-1]
	if _, _, err := bc7.ParseDDS(truncated); err == nil {
		t.Errorf("truncated payload accepted")
	}
}
