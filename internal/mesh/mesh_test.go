package mesh

import "testing"

func TestEncodeDecodeDirectRoundTrip(t *testing.T) {
	payload, err := EncodeDirect(0xABCDEF, "hello alice")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ev, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != EventDirect {
		t.Fatalf("kind = %v, want EventDirect", ev.Kind)
	}
	if ev.FromNode != 0xABCDEF {
		t.Fatalf("from = %x, want %x", ev.FromNode, 0xABCDEF)
	}
	if ev.Text != "hello alice" {
		t.Fatalf("text = %q", ev.Text)
	}
}

func TestEncodeRejectsOverBudget(t *testing.T) {
	big := make([]byte, MaxTextBytes+1)
	for i := range big {
		big[i] = 'x'
	}
	if _, err := EncodeBroadcast(string(big)); err == nil {
		t.Fatal("expected over-budget text to be rejected")
	}
}

func TestEncodeAcceptsExactBudget(t *testing.T) {
	exact := make([]byte, MaxTextBytes)
	for i := range exact {
		exact[i] = 'x'
	}
	if _, err := EncodeBroadcast(string(exact)); err != nil {
		t.Fatalf("expected exactly-200-byte text to be accepted: %v", err)
	}
}

func TestNodeInfoRoundTrip(t *testing.T) {
	payload := make([]byte, 0)
	payload = append(payload, KindNodeInfo)
	payload = append(payload, 0x01, 0x02, 0x03, 0x04) // node id LE
	payload = append(payload, []byte("abcd")...)
	payload = append(payload, 0)
	payload = append(payload, []byte("Alice Node")...)

	ev, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != EventNodeInfo {
		t.Fatalf("kind = %v", ev.Kind)
	}
	if ev.NodeInfo.ShortName != "abcd" || ev.NodeInfo.LongName != "Alice Node" {
		t.Fatalf("node info = %+v", ev.NodeInfo)
	}
}

func TestShortHexIs24Bit(t *testing.T) {
	if got := ShortHex(0x123456789); got != "456789" {
		t.Fatalf("ShortHex = %q, want truncated to 24 bits", got)
	}
}
