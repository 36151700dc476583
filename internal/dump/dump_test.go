package dump

import (
	"strings"
	"testing"
)

func TestFormatIdempotent(t *testing.T) {
	b := []byte{0xEF, 0x01, 0xAA, 0xAA, 0xAA, 0xAA, 0x01, 0x00, 0x03, 0x05, 0x06, 0x07}
	first := Format(b)
	second := Format(b)
	if first != second {
		t.Fatalf("Format not idempotent:\n%q\n%q", first, second)
	}
}

func TestPlainOutput(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "empty",
			in:   nil,
			want: "[] (0)",
		},
		{
			name: "host message",
			in:   []byte{0x01, 0x02, 0x03},
			want: "[0x01, 0x02, 0x03] (3)",
		},
		{
			name: "minimal frame",
			in:   []byte{0xEF, 0x01, 0xAA, 0xAA, 0xAA, 0xAA, 0x01, 0x00, 0x03, 0x05, 0x06, 0x07},
			want: "[0xEF, 0x01, 0xAA, 0xAA, 0xAA, 0xAA, 0x01, 0x00, 0x03, 0x05, 0x06, 0x07] (12)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Plain(tc.in); got != tc.want {
				t.Fatalf("Plain() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatToleratesShortInput(t *testing.T) {
	// Nothing to assert beyond "does not panic and keeps every byte".
	for n := 0; n <= 16; n++ {
		b := make([]byte, n)
		out := Format(b)
		if got := strings.Count(out, "0x00"); got != n {
			t.Fatalf("len %d: rendered %d bytes", n, got)
		}
	}
}

func TestFormatAnnotatesLength(t *testing.T) {
	out := Plain([]byte{0xEF, 0x01})
	if !strings.HasSuffix(out, "(2)") {
		t.Fatalf("missing byte count: %q", out)
	}
}
