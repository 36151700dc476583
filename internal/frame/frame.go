// Package frame implements the sensor's length-prefixed frame layout:
// a fixed 2-byte header, a 4-byte module address, a 1-byte packet id,
// a 2-byte big-endian length (payload plus trailing checksum), then
// length bytes of payload and checksum.
package frame

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	HeaderByte0 = 0xEF
	HeaderByte1 = 0x01

	HeaderSize   = 2
	AddressSize  = 4
	PacketIDSize = 1
	LengthSize   = 2
	ChecksumSize = 2

	// PrefixSize is the number of bytes preceding the region the length
	// field counts.
	PrefixSize = HeaderSize + AddressSize + PacketIDSize + LengthSize

	// MinLength is the smallest legal value of the length field: one
	// payload byte plus the two checksum bytes.
	MinLength = 3

	// MinFrameSize is the smallest complete frame on the wire.
	MinFrameSize = PrefixSize + MinLength

	addressOffset  = HeaderSize
	packetIDOffset = addressOffset + AddressSize
	lengthOffset   = packetIDOffset + PacketIDSize
)

// Packet ids the sensor uses. The relay forwards them opaquely; they are
// exposed for decode tooling only.
const (
	PacketIDCommand   = 0x01
	PacketIDData      = 0x02
	PacketIDAck       = 0x07
	PacketIDEndOfData = 0x08
)

// PacketIDName returns the protocol name of a packet id, or "" for an
// id outside the known set.
func PacketIDName(id byte) string {
	switch id {
	case PacketIDCommand:
		return "command"
	case PacketIDData:
		return "data"
	case PacketIDAck:
		return "ack"
	case PacketIDEndOfData:
		return "end-of-data"
	}
	return ""
}

var (
	// ErrInvalid is the class of unrecoverable detection failures; the
	// specific sentinels below all unwrap to it.
	ErrInvalid = errors.New("invalid frame")

	ErrBadHeader       = fmt.Errorf("%w: header mismatch", ErrInvalid)
	ErrAddressMismatch = fmt.Errorf("%w: address mismatch", ErrInvalid)
	ErrBadLength       = fmt.Errorf("%w: declared length below minimum", ErrInvalid)

	// ErrIncomplete reports that more bytes must arrive before a
	// decision can be made. It is not an ErrInvalid.
	ErrIncomplete = errors.New("incomplete frame")

	ErrChecksum = errors.New("checksum mismatch")
)

// Address identifies the module a bridge instance talks to. Frames
// carrying any other address are invalid for that instance.
type Address [AddressSize]byte

// Broadcast is the factory-default module address.
var Broadcast = Address{0xFF, 0xFF, 0xFF, 0xFF}

// ParseAddress decodes a 4-byte address from hex, tolerating an optional
// 0x prefix and ':' or '-' separators.
func ParseAddress(s string) (Address, error) {
	var a Address
	clean := strings.NewReplacer("0x", "", "0X", "", ":", "", "-", "", " ", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return a, fmt.Errorf("parse address %q: %w", s, err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("parse address %q: need %d bytes, got %d", s, AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

func (a Address) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// Detect reports the on-wire size of the complete frame at the start of
// buf, ErrIncomplete if the frame has not fully arrived, or an
// ErrInvalid sentinel if the buffer cannot begin a frame for addr. It
// never scans past leading garbage: a mismatch condemns the whole
// buffer.
func Detect(buf []byte, addr Address) (int, error) {
	if len(buf) < MinFrameSize {
		return 0, ErrIncomplete
	}
	if buf[0] != HeaderByte0 || buf[1] != HeaderByte1 {
		return 0, ErrBadHeader
	}
	if !bytes.Equal(buf[addressOffset:addressOffset+AddressSize], addr[:]) {
		return 0, ErrAddressMismatch
	}
	length := int(binary.BigEndian.Uint16(buf[lengthOffset : lengthOffset+LengthSize]))
	if length < MinLength {
		return 0, ErrBadLength
	}
	if len(buf) < PrefixSize+length {
		return 0, ErrIncomplete
	}
	return PrefixSize + length, nil
}

// Sum16 is the protocol's additive checksum: the 16-bit sum of every
// byte from the packet id through the end of the payload.
func Sum16(b []byte) uint16 {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}
	return sum
}

// Packet is a complete frame split into its fields.
type Packet struct {
	Address  Address
	PacketID byte
	Payload  []byte
	Checksum uint16
}

// Parse splits a single complete frame into fields. It validates
// structure only; Verify checks the checksum.
func Parse(b []byte) (Packet, error) {
	if len(b) < MinFrameSize {
		return Packet{}, ErrIncomplete
	}
	if b[0] != HeaderByte0 || b[1] != HeaderByte1 {
		return Packet{}, ErrBadHeader
	}
	length := int(binary.BigEndian.Uint16(b[lengthOffset : lengthOffset+LengthSize]))
	if length < MinLength {
		return Packet{}, ErrBadLength
	}
	if len(b) < PrefixSize+length {
		return Packet{}, ErrIncomplete
	}
	b = b[:PrefixSize+length]

	var p Packet
	copy(p.Address[:], b[addressOffset:addressOffset+AddressSize])
	p.PacketID = b[packetIDOffset]
	p.Payload = b[PrefixSize : len(b)-ChecksumSize]
	p.Checksum = binary.BigEndian.Uint16(b[len(b)-ChecksumSize:])
	return p, nil
}

// Verify recomputes the checksum of a complete frame and compares it to
// the declared trailer.
func Verify(b []byte) error {
	n, err := Detect(b, mustAddress(b))
	if err != nil {
		return err
	}
	declared := binary.BigEndian.Uint16(b[n-ChecksumSize : n])
	computed := Sum16(b[packetIDOffset : n-ChecksumSize])
	if declared != computed {
		return fmt.Errorf("%w: declared 0x%04X, computed 0x%04X", ErrChecksum, declared, computed)
	}
	return nil
}

// mustAddress reads the frame's own address so Verify can reuse Detect's
// structural checks without imposing an expected address.
func mustAddress(b []byte) Address {
	var a Address
	if len(b) >= addressOffset+AddressSize {
		copy(a[:], b[addressOffset:addressOffset+AddressSize])
	}
	return a
}
