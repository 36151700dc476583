package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mimocad/fpbridge/internal/dump"
	"github.com/mimocad/fpbridge/internal/frame"
)

func decodeCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "decode <hex bytes...>",
		Short: "Render captured bytes as an annotated frame dump",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			addr, err := frame.ParseAddress(address)
			if err != nil {
				return err
			}

			clean := strings.NewReplacer(" ", "", "-", "", ",", "", "0x", "", "0X", "").
				Replace(strings.Join(args, ""))
			b, err := hex.DecodeString(clean)
			if err != nil {
				return fmt.Errorf("decode hex input: %w", err)
			}

			fmt.Println(dump.Format(b))

			n, err := frame.Detect(b, addr)
			switch {
			case errors.Is(err, frame.ErrIncomplete):
				fmt.Println("incomplete frame")
				return nil
			case err != nil:
				fmt.Printf("not a frame for address %s: %v\n", addr, err)
				return nil
			}

			p, err := frame.Parse(b[:n])
			if err != nil {
				return err
			}
			fmt.Printf("address:   %s\n", p.Address)
			if name := frame.PacketIDName(p.PacketID); name != "" {
				fmt.Printf("packet id: 0x%02X (%s)\n", p.PacketID, name)
			} else {
				fmt.Printf("packet id: 0x%02X\n", p.PacketID)
			}
			fmt.Printf("payload:   %s\n", dump.Plain(p.Payload))
			if err := frame.Verify(b[:n]); err != nil {
				fmt.Printf("checksum:  0x%04X (%v)\n", p.Checksum, err)
			} else {
				fmt.Printf("checksum:  0x%04X (ok)\n", p.Checksum)
			}
			if n < len(b) {
				fmt.Printf("trailing:  %s\n", dump.Plain(b[n:]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "FFFFFFFF", "expected 4-byte module address (hex)")
	return cmd
}
