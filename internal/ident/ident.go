// Package ident derives the device identity strings the bridge reports.
package ident

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// SerialString formats a 64-bit unique id as the fixed 16-character
// uppercase hex string presented as the bridge's serial number.
func SerialString(id uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return strings.ToUpper(hex.EncodeToString(b[:]))
}
