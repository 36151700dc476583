package ident

import "testing"

func TestSerialString(t *testing.T) {
	tests := []struct {
		id   uint64
		want string
	}{
		{id: 0, want: "0000000000000000"},
		{id: 0xDEADBEEF00C0FFEE, want: "DEADBEEF00C0FFEE"},
		{id: 0x1, want: "0000000000000001"},
	}
	for _, tc := range tests {
		if got := SerialString(tc.id); got != tc.want {
			t.Fatalf("SerialString(%#x) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
