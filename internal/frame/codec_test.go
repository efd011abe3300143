package frame

import (
	"bytes"
	"testing"
)

func TestRoundTripNoCRC(t *testing.T) {
	for size := 0; size <= 200; size++ {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload, false); err != nil {
			t.Fatalf("size %d: write: %v", size, err)
		}
		got, err := ReadFrame(&buf, false)
		if err != nil {
			t.Fatalf("size %d: read: %v", size, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
	}
}

func TestRoundTripWithCRC(t *testing.T) {
	payload := []byte("hello mesh")
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFrame(&buf, true)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %q want %q", got, payload)
	}
}

func TestCRCMismatchRejected(t *testing.T) {
	payload := []byte("tamper me")
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF // corrupt the CRC trailer
	if _, err := ReadFrame(bytes.NewReader(raw), true); err == nil {
		t.Fatal("expected crc mismatch error")
	}
}

func TestUTF8SequencesSurviveRoundTrip(t *testing.T) {
	samples := []string{
		"a",
		"é",        // 2-byte
		"中文",  // 3-byte CJK
		"\U0001F4E1",    // 4-byte emoji (satellite antenna)
	}
	for _, s := range samples {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, []byte(s), false); err != nil {
			t.Fatalf("%q: write: %v", s, err)
		}
		got, err := ReadFrame(&buf, false)
		if err != nil {
			t.Fatalf("%q: read: %v", s, err)
		}
		if string(got) != s {
			t.Fatalf("%q: round trip mismatch, got %q", s, got)
		}
	}
}

func TestBadMagicRejected(t *testing.T) {
	buf := bytes.NewReader([]byte{0x00, 0x00, 0x01, 0x00, 0xAA})
	if _, err := ReadFrame(buf, false); err == nil {
		t.Fatal("expected bad magic error")
	}
}

func TestOversizedPayloadRejected(t *testing.T) {
	payload := make([]byte, maxPayloadLen+1)
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload, false); err == nil {
		t.Fatal("expected oversized payload error")
	}
}
