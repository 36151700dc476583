package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mimocad/fpbridge/internal/frame"
	"github.com/mimocad/fpbridge/internal/relay"
	"github.com/mimocad/fpbridge/internal/serialdev"
)

type settings struct {
	HostTransport string
	VendorID      uint16
	ProductID     uint16
	ReportID      byte
	SerialPort    string
	BaudRate      int
	Address       frame.Address
	BufferCap     int
	MTU           int
	ReadTimeout   time.Duration
	UniqueID      uint64
}

func defaultSettings() settings {
	return settings{
		HostTransport: "usb",
		VendorID:      0x1EE7,
		ProductID:     0x1337,
		ReportID:      1,
		SerialPort:    "/dev/ttyUSB0",
		BaudRate:      serialdev.DefaultBaudRate,
		Address:       frame.Broadcast,
		BufferCap:     relay.DefaultBufferCap,
		MTU:           relay.DefaultMTU,
		ReadTimeout:   serialdev.DefaultReadTimeout,
	}
}

type fileConfig struct {
	HostTransport string `toml:"host_transport"`
	VendorID      string `toml:"vendor_id"`
	ProductID     string `toml:"product_id"`
	ReportID      int    `toml:"report_id"`
	SerialPort    string `toml:"serial_port"`
	BaudRate      int    `toml:"baud_rate"`
	Address       string `toml:"address"`
	BufferCap     int    `toml:"buffer_cap"`
	MTU           int    `toml:"mtu"`
	ReadTimeout   string `toml:"read_timeout"`
	UniqueID      string `toml:"unique_id"`
}

func loadSettings(path string) (settings, error) {
	cfg := defaultSettings()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return settings{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("host_transport") {
		kind := strings.TrimSpace(strings.ToLower(raw.HostTransport))
		if kind != "usb" && kind != "hid" {
			return settings{}, fmt.Errorf("host_transport must be usb or hid, got %q", raw.HostTransport)
		}
		cfg.HostTransport = kind
	}

	if meta.IsDefined("vendor_id") {
		v, err := parseHex16(raw.VendorID)
		if err != nil {
			return settings{}, fmt.Errorf("parse vendor_id: %w", err)
		}
		cfg.VendorID = v
	}

	if meta.IsDefined("product_id") {
		v, err := parseHex16(raw.ProductID)
		if err != nil {
			return settings{}, fmt.Errorf("parse product_id: %w", err)
		}
		cfg.ProductID = v
	}

	if meta.IsDefined("report_id") {
		if raw.ReportID < 1 || raw.ReportID > 255 {
			return settings{}, fmt.Errorf("report_id out of range: %d", raw.ReportID)
		}
		cfg.ReportID = byte(raw.ReportID)
	}

	if meta.IsDefined("serial_port") {
		cfg.SerialPort = strings.TrimSpace(raw.SerialPort)
	}

	if meta.IsDefined("baud_rate") {
		cfg.BaudRate = raw.BaudRate
	}

	if meta.IsDefined("address") {
		a, err := frame.ParseAddress(raw.Address)
		if err != nil {
			return settings{}, err
		}
		cfg.Address = a
	}

	if meta.IsDefined("buffer_cap") {
		cfg.BufferCap = raw.BufferCap
	}

	if meta.IsDefined("mtu") {
		cfg.MTU = raw.MTU
	}

	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return settings{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}

	if meta.IsDefined("unique_id") {
		id, err := strconv.ParseUint(strip0x(raw.UniqueID), 16, 64)
		if err != nil {
			return settings{}, fmt.Errorf("parse unique_id: %w", err)
		}
		cfg.UniqueID = id
	}

	return cfg, nil
}

func parseHex16(s string) (uint16, error) {
	v, err := strconv.ParseUint(strip0x(s), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func strip0x(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	return strings.TrimPrefix(s, "0X")
}
