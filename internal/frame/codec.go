// Package frame implements the length-delimited radio framing layer.
//
// A frame is a fixed magic prefix, a little-endian length, an opaque
// payload, and an optional 16-bit checksum trailer (see crc16). The codec does not
// interpret the payload; that is the mesh session layer's job.
package frame

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Magic is the fixed prefix every frame starts with.
var Magic = [2]byte{0x94, 0xc3}

const (
	maxPayloadLen = 512
	crcLen        = 2
)

// ReadFrame reads one frame from r. When requireCRC is true, the last
// two bytes of the frame are a 16-bit checksum (an IEEE CRC32 folded
// to 16 bits — see crc16) over the payload and are verified.
func ReadFrame(r io.Reader, requireCRC bool) ([]byte, error) {
	var magic [2]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read frame magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad frame magic: %x", magic)
	}

	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	total := int(binary.LittleEndian.Uint16(lenBuf[:]))
	if total > maxPayloadLen+crcLen {
		return nil, fmt.Errorf("invalid frame length: %d", total)
	}

	body := make([]byte, total)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body (%d bytes): %w", total, err)
	}

	if !requireCRC {
		return body, nil
	}
	if len(body) < crcLen {
		return nil, fmt.Errorf("frame too short for CRC")
	}
	payload := body[:len(body)-crcLen]
	want := binary.LittleEndian.Uint16(body[len(body)-crcLen:])
	if got := crc16(payload); got != want {
		return nil, fmt.Errorf("crc mismatch: got %04x want %04x", got, want)
	}
	return payload, nil
}

// WriteFrame writes one frame to w. When requireCRC is true, a CRC16
// checksum over payload is appended before the length is computed.
func WriteFrame(w io.Writer, payload []byte, requireCRC bool) error {
	if len(payload) > maxPayloadLen {
		return fmt.Errorf("payload too large: %d bytes", len(payload))
	}

	body := payload
	if requireCRC {
		var crcBuf [2]byte
		binary.LittleEndian.PutUint16(crcBuf[:], crc16(payload))
		body = append(append([]byte{}, payload...), crcBuf[:]...)
	}

	var header [4]byte
	header[0], header[1] = Magic[0], Magic[1]
	binary.LittleEndian.PutUint16(header[2:4], uint16(len(body)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// crc16 computes a 16-bit checksum by XOR-folding the high and low
// halves of the payload's IEEE CRC32; sufficient as a transport-layer
// corruption check, not a cryptographic guarantee.
func crc16(data []byte) uint16 {
	c := crc32.ChecksumIEEE(data)
	return uint16(c) ^ uint16(c>>16)
}
