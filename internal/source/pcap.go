package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/google/gopacket/tcpassembly"

	"firestige.xyz/thinkgear/internal/core"
)

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

const (
	// Out-of-order pages held per connection before the gap is skipped.
	pcapMaxBufferedPages      = 64
	pcapMaxBufferedPagesTotal = 1024
)

type packetDataSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

type flowKey [2]gopacket.Flow

// PcapStream replays the application payload of a pcap or pcapng file as
// one byte stream, e.g. a headset relayed over the network by a serial
// bridge. UDP payloads are concatenated in capture order. TCP is reassembled
// and only one direction of one connection is kept: the first one seen
// carrying data.
type PcapStream struct {
	f         *os.File
	src       packetDataSource
	port      uint16
	assembler *tcpassembly.Assembler
	flow      flowKey
	selected  bool
	drained   bool
	pending   []byte

	packets uint64
	matched uint64
	skipped uint64 // TCP bytes lost to sequence gaps
}

// OpenPcap opens a capture file. A non-zero port keeps only packets with
// that source or destination port.
func OpenPcap(path string, port uint16) (*PcapStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrTransport, path, err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: read pcap header %s: %w", core.ErrTransport, path, err)
	}

	var src packetDataSource
	if bytes.Equal(magic, pcapngMagic) {
		src, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(br)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: parse pcap %s: %w", core.ErrTransport, path, err)
	}

	p := &PcapStream{f: f, src: src, port: port}
	p.assembler = tcpassembly.NewAssembler(tcpassembly.NewStreamPool(&streamFactory{p: p}))
	p.assembler.MaxBufferedPagesPerConnection = pcapMaxBufferedPages
	p.assembler.MaxBufferedPagesTotal = pcapMaxBufferedPagesTotal

	slog.Info("pcap source opened", "path", path, "link_type", src.LinkType().String(), "port", port)
	return p, nil
}

// Read implements io.Reader. It returns io.EOF after the last packet and
// any TCP data still buffered behind a gap.
func (p *PcapStream) Read(b []byte) (int, error) {
	for len(p.pending) == 0 {
		if p.drained {
			return 0, io.EOF
		}
		data, ci, err := p.src.ReadPacketData()
		if err == io.EOF {
			p.assembler.FlushAll()
			p.drained = true
			slog.Debug("pcap source exhausted", "packets", p.packets, "matched", p.matched, "skipped_bytes", p.skipped)
			continue
		}
		if err != nil {
			return 0, err
		}
		p.packets++
		p.handle(data, ci)
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *PcapStream) handle(data []byte, ci gopacket.CaptureInfo) {
	pkt := gopacket.NewPacket(data, p.src.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	switch t := pkt.TransportLayer().(type) {
	case *layers.TCP:
		nl := pkt.NetworkLayer()
		if nl == nil || !p.portMatches(uint16(t.SrcPort), uint16(t.DstPort)) {
			return
		}
		if len(t.Payload) > 0 {
			p.matched++
			if !p.selected {
				p.flow = flowKey{nl.NetworkFlow(), t.TransportFlow()}
				p.selected = true
				slog.Debug("pcap tcp flow selected", "net", p.flow[0].String(), "transport", p.flow[1].String())
			}
		}
		p.assembler.AssembleWithTimestamp(nl.NetworkFlow(), t, ci.Timestamp)
	case *layers.UDP:
		if !p.portMatches(uint16(t.SrcPort), uint16(t.DstPort)) || len(t.Payload) == 0 {
			return
		}
		p.matched++
		p.pending = append(p.pending, t.Payload...)
	}
}

func (p *PcapStream) portMatches(src, dst uint16) bool {
	return p.port == 0 || src == p.port || dst == p.port
}

// Close implements io.Closer.
func (p *PcapStream) Close() error {
	return p.f.Close()
}

type streamFactory struct {
	p *PcapStream
}

// New implements tcpassembly.StreamFactory.
func (f *streamFactory) New(net, transport gopacket.Flow) tcpassembly.Stream {
	return &tcpStream{p: f.p, key: flowKey{net, transport}}
}

// tcpStream is one direction of a TCP connection.
type tcpStream struct {
	p   *PcapStream
	key flowKey
}

// Reassembled implements tcpassembly.Stream. Bytes may live in reused
// assembler pages, so they are copied.
func (s *tcpStream) Reassembled(rs []tcpassembly.Reassembly) {
	if !s.p.selected || s.key != s.p.flow {
		return
	}
	for _, r := range rs {
		if r.Skip > 0 {
			s.p.skipped += uint64(r.Skip)
			slog.Warn("pcap tcp gap, bytes missing from stream", "skipped", r.Skip)
		}
		s.p.pending = append(s.p.pending, r.Bytes...)
	}
}

// ReassemblyComplete implements tcpassembly.Stream.
func (s *tcpStream) ReassemblyComplete() {}
