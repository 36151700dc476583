package frame

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

// parseHexString converts a dash-separated hex string to bytes.
func parseHexString(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, "-", ""))
	if err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return b
}

var testAddr = Address{0xAA, 0xAA, 0xAA, 0xAA}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		wantLen int
		wantErr error
	}{
		{
			name:    "empty",
			hex:     "",
			wantErr: ErrIncomplete,
		},
		{
			name:    "below minimum size",
			hex:     "ef-01-aa-aa-aa-aa-01-00-03-05-06",
			wantErr: ErrIncomplete,
		},
		{
			name:    "smallest complete frame",
			hex:     "ef-01-aa-aa-aa-aa-01-00-03-05-06-07",
			wantLen: 12,
		},
		{
			name:    "wrong header",
			hex:     "00-00-aa-aa-aa-aa-01-00-03-05-06-07",
			wantErr: ErrBadHeader,
		},
		{
			name:    "wrong header long buffer",
			hex:     "00-00-aa-aa-aa-aa-01-00-03-05-06-07-08-09-0a-0b-0c-0d",
			wantErr: ErrBadHeader,
		},
		{
			name:    "wrong address",
			hex:     "ef-01-bb-bb-bb-bb-01-00-03-05-06-07",
			wantErr: ErrAddressMismatch,
		},
		{
			name:    "length below minimum",
			hex:     "ef-01-aa-aa-aa-aa-01-00-02-05-06-07",
			wantErr: ErrBadLength,
		},
		{
			name:    "declared length not yet arrived",
			hex:     "ef-01-aa-aa-aa-aa-01-00-05-05-06-07",
			wantErr: ErrIncomplete,
		},
		{
			name:    "frame with trailing bytes",
			hex:     "ef-01-aa-aa-aa-aa-01-00-03-05-06-07-ff-ff-ff-ff-ff",
			wantLen: 12,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := parseHexString(t, tc.hex)
			n, err := Detect(buf, testAddr)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Detect() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if n != tc.wantLen {
				t.Fatalf("Detect() = %d, want %d", n, tc.wantLen)
			}
		})
	}
}

func TestDetectDeterministic(t *testing.T) {
	buf := parseHexString(t, "ef-01-aa-aa-aa-aa-01-00-03-05-06-07")
	n1, err1 := Detect(buf, testAddr)
	n2, err2 := Detect(buf, testAddr)
	if n1 != n2 || err1 != err2 {
		t.Fatalf("Detect not deterministic: (%d,%v) vs (%d,%v)", n1, err1, n2, err2)
	}
}

func TestInvalidClassification(t *testing.T) {
	for _, err := range []error{ErrBadHeader, ErrAddressMismatch, ErrBadLength} {
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%v should be ErrInvalid", err)
		}
	}
	if errors.Is(ErrIncomplete, ErrInvalid) {
		t.Fatalf("ErrIncomplete must not be ErrInvalid")
	}
}

func TestParse(t *testing.T) {
	buf := parseHexString(t, "ef-01-aa-aa-aa-aa-07-00-04-00-05-00-10")
	p, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Address != testAddr {
		t.Fatalf("address = %s, want %s", p.Address, testAddr)
	}
	if p.PacketID != PacketIDAck {
		t.Fatalf("packet id = 0x%02X, want 0x%02X", p.PacketID, PacketIDAck)
	}
	if len(p.Payload) != 2 || p.Payload[0] != 0x00 || p.Payload[1] != 0x05 {
		t.Fatalf("payload = %v", p.Payload)
	}
	if p.Checksum != 0x0010 {
		t.Fatalf("checksum = 0x%04X", p.Checksum)
	}
}

func TestVerify(t *testing.T) {
	// sum over 07 00 04 00 05 = 0x10
	good := parseHexString(t, "ef-01-aa-aa-aa-aa-07-00-04-00-05-00-10")
	if err := Verify(good); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	bad := parseHexString(t, "ef-01-aa-aa-aa-aa-07-00-04-00-05-00-11")
	if err := Verify(bad); !errors.Is(err, ErrChecksum) {
		t.Fatalf("Verify() error = %v, want ErrChecksum", err)
	}
}

func TestSum16(t *testing.T) {
	if got := Sum16([]byte{0x07, 0x00, 0x03, 0x00}); got != 0x000A {
		t.Fatalf("Sum16 = 0x%04X, want 0x000A", got)
	}
	if got := Sum16(nil); got != 0 {
		t.Fatalf("Sum16(nil) = 0x%04X", got)
	}
}

func TestPacketIDName(t *testing.T) {
	tests := []struct {
		id   byte
		want string
	}{
		{id: PacketIDCommand, want: "command"},
		{id: PacketIDData, want: "data"},
		{id: PacketIDAck, want: "ack"},
		{id: PacketIDEndOfData, want: "end-of-data"},
		{id: 0x42, want: ""},
	}
	for _, tc := range tests {
		if got := PacketIDName(tc.id); got != tc.want {
			t.Fatalf("PacketIDName(0x%02X) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    Address
		wantErr bool
	}{
		{in: "FFFFFFFF", want: Broadcast},
		{in: "0xAAAAAAAA", want: testAddr},
		{in: "aa:aa:aa:aa", want: testAddr},
		{in: "aa-aa-aa-aa", want: testAddr},
		{in: "aabb", wantErr: true},
		{in: "zzzzzzzz", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseAddress(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseAddress(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAddress(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAddress(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
