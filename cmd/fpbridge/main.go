package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/karalabe/usb"
	"github.com/spf13/cobra"

	"github.com/mimocad/fpbridge/internal/hosthid"
	"github.com/mimocad/fpbridge/internal/hostusb"
	"github.com/mimocad/fpbridge/internal/ident"
	"github.com/mimocad/fpbridge/internal/relay"
	"github.com/mimocad/fpbridge/internal/serialdev"
)

var (
	configPath string
	verbose    bool
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	root := &cobra.Command{
		Use:          "fpbridge",
		Short:        "Bridge a bulk-transfer host link to a serial fingerprint sensor",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	root.AddCommand(runCmd(), listCmd(), decodeCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Relay between the host endpoint and the sensor until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(configPath)
			if err != nil {
				return err
			}

			port, err := serialdev.Open(serialdev.Config{
				Name:        cfg.SerialPort,
				BaudRate:    cfg.BaudRate,
				ReadTimeout: cfg.ReadTimeout,
			})
			if err != nil {
				return err
			}
			defer port.Close()

			host, err := newHostChannel(cfg)
			if err != nil {
				return err
			}

			slog.Info("bridge starting",
				slog.String("serial", ident.SerialString(cfg.UniqueID)),
				slog.String("transport", cfg.HostTransport),
				slog.String("port", cfg.SerialPort),
				slog.String("address", cfg.Address.String()))

			bridge := &relay.Bridge{
				Host:   host,
				Device: port,
				Config: relay.Config{
					Address:   cfg.Address,
					BufferCap: cfg.BufferCap,
					MTU:       cfg.MTU,
				},
			}
			return bridge.Run(cmd.Context())
		},
	}
}

func newHostChannel(cfg settings) (relay.HostChannel, error) {
	switch cfg.HostTransport {
	case "usb":
		return &hostusb.Channel{VendorID: cfg.VendorID, ProductID: cfg.ProductID}, nil
	case "hid":
		return &hosthid.Channel{VendorID: cfg.VendorID, ProductID: cfg.ProductID, ReportID: cfg.ReportID}, nil
	default:
		return nil, fmt.Errorf("unknown host transport %q (want usb or hid)", cfg.HostTransport)
	}
}

func listCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidate USB host endpoints",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadSettings(configPath)
			if err != nil {
				return err
			}

			vid, pid := cfg.VendorID, cfg.ProductID
			if all {
				vid, pid = 0, 0
			}
			infos, err := usb.Enumerate(vid, pid)
			if err != nil {
				return fmt.Errorf("usb enumerate: %w", err)
			}
			if len(infos) == 0 {
				fmt.Println("no matching devices")
				return nil
			}
			for _, info := range infos {
				fmt.Printf("%04X:%04X %s\n", info.VendorID, info.ProductID, info.Path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every USB device, not just the configured VID/PID")
	return cmd
}
