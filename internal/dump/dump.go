// Package dump renders relayed byte sequences as annotated hex for log
// output. Coloring is by byte offset within the sensor's frame layout
// and never affects relay behavior.
package dump

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	addressStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	packetIDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	lengthStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	confirmationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	checksumStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// Format renders b as a bracketed list of hex bytes with frame fields
// colored: header red, address green, packet id yellow, length blue,
// confirmation code cyan, checksum magenta, payload uncolored. Inputs
// shorter than a full frame are rendered as far as their offsets reach.
func Format(b []byte) string {
	return render(b, true)
}

// Plain is Format without color codes.
func Plain(b []byte) string {
	return render(b, false)
}

func render(b []byte, color bool) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		cell := fmt.Sprintf("0x%02X", v)
		if color {
			if style, ok := styleFor(i, len(b)); ok {
				cell = style.Render(cell)
			}
		}
		sb.WriteString(cell)
	}
	fmt.Fprintf(&sb, "] (%d)", len(b))
	return sb.String()
}

// styleFor matches offsets in field order; the fixed prefix fields win
// over the trailing-checksum rule so a 12-byte frame colors byte 9 as a
// confirmation code, not checksum.
func styleFor(idx, total int) (lipgloss.Style, bool) {
	switch {
	case idx < 2:
		return headerStyle, true
	case idx < 6:
		return addressStyle, true
	case idx == 6:
		return packetIDStyle, true
	case idx < 9:
		return lengthStyle, true
	case idx == 9:
		return confirmationStyle, true
	case idx >= total-2:
		return checksumStyle, true
	}
	return lipgloss.Style{}, false
}
