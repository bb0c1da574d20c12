// Package source opens the byte streams a decoder reads from. Obtaining the
// stream (pairing, RFCOMM binding, serial bridges) happens outside this
// process; a source only turns an address or path into an io.ReadCloser.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"firestige.xyz/thinkgear/internal/config"
	"firestige.xyz/thinkgear/internal/core"
)

// Open returns the stream described by cfg. The mock source stops when ctx
// is done; the other sources are stopped by closing them.
func Open(ctx context.Context, cfg config.SourceConfig) (io.ReadCloser, error) {
	switch cfg.Type {
	case "file":
		return openFile(cfg.Path)
	case "tcp":
		return dialTCP(ctx, cfg)
	case "pcap":
		p, err := OpenPcap(cfg.Path, cfg.Pcap.Port)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "mock":
		return NewMock(ctx, cfg.Mock), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSource, cfg.Type)
	}
}

// openFile opens a capture file or a character device such as /dev/rfcomm0.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrTransport, path, err)
	}
	slog.Info("file source opened", "path", path)
	return f, nil
}

// dialTCP connects to a serial-to-TCP bridge.
func dialTCP(ctx context.Context, cfg config.SourceConfig) (io.ReadCloser, error) {
	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", core.ErrTransport, cfg.Address, err)
	}
	slog.Info("tcp source connected", "remote", conn.RemoteAddr().String())
	return conn, nil
}
