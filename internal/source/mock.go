package source

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"firestige.xyz/thinkgear/internal/config"
	"firestige.xyz/thinkgear/internal/core"
	"firestige.xyz/thinkgear/internal/core/decoder"
)

const (
	mockAlphaFreqHz   = 10.0
	mockAlphaAmp      = 400.0
	mockBetaFreqHz    = 21.0
	mockBetaAmp       = 120.0
	mockNoiseAmp      = 60.0
	mockESenseDriftHz = 0.05
)

// Generator produces the frame sequence of a synthetic headset: raw wave
// frames, and an aggregate frame (signal quality, power bands, attention,
// meditation) every AggregateRate raw frames. A CorruptRatio fraction of
// frames get one payload bit flipped.
type Generator struct {
	cfg  config.MockConfig
	rng  *rand.Rand
	seq  int
	rate float64
}

// NewGenerator returns a deterministic generator for cfg.Seed.
func NewGenerator(cfg config.MockConfig) *Generator {
	if cfg.RawRateHz <= 0 {
		cfg.RawRateHz = 512
	}
	cfg.RawRateHz = min(cfg.RawRateHz, config.MaxMockRateHz)
	if cfg.AggregateRate <= 0 {
		cfg.AggregateRate = cfg.RawRateHz
	}
	seed := uint64(cfg.Seed)
	return &Generator{
		cfg:  cfg,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		rate: float64(cfg.RawRateHz),
	}
}

// Next returns the next encoded frame and whether it was corrupted.
func (g *Generator) Next() ([]byte, bool) {
	g.seq++
	t := float64(g.seq) / g.rate

	var b decoder.PayloadBuilder
	if g.seq%g.cfg.AggregateRate == 0 {
		drift := math.Sin(2 * math.Pi * mockESenseDriftHz * t)
		b.SignalQuality(0).
			Power(g.power()).
			Attention(uint8(50 + 40*drift)).
			Meditation(uint8(50 - 30*drift))
	} else {
		b.RawWave(g.sample(t))
	}

	// payloads built here never exceed the maximum length
	frame, _ := b.Frame()
	corrupt := g.cfg.CorruptRatio > 0 && g.rng.Float64() < g.cfg.CorruptRatio
	if corrupt {
		payloadLen := int(frame[2])
		frame[3+g.rng.IntN(payloadLen)] ^= 1 << g.rng.IntN(8)
	}
	return frame, corrupt
}

func (g *Generator) sample(t float64) int16 {
	v := mockAlphaAmp*math.Sin(2*math.Pi*mockAlphaFreqHz*t) +
		mockBetaAmp*math.Sin(2*math.Pi*mockBetaFreqHz*t) +
		mockNoiseAmp*(g.rng.Float64()*2-1)
	return int16(v)
}

func (g *Generator) power() core.PowerBands {
	band := func(base uint32) uint32 {
		return base + g.rng.Uint32N(base/2+1)
	}
	return core.PowerBands{
		Delta:     band(600000),
		Theta:     band(150000),
		LowAlpha:  band(40000),
		HighAlpha: band(30000),
		LowBeta:   band(20000),
		HighBeta:  band(15000),
		LowGamma:  band(8000),
		MidGamma:  band(4000),
	}
}

// NewMock streams generator frames at RawRateHz through a pipe until ctx is
// done, the reader is closed, or Frames frames have been written.
func NewMock(ctx context.Context, cfg config.MockConfig) io.ReadCloser {
	pr, pw := io.Pipe()
	gen := NewGenerator(cfg)
	go runMock(ctx, pw, gen)
	return pr
}

func runMock(ctx context.Context, pw *io.PipeWriter, gen *Generator) {
	interval := time.Second / time.Duration(gen.cfg.RawRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	written := 0
	for {
		select {
		case <-ctx.Done():
			pw.CloseWithError(ctx.Err())
			return
		case <-ticker.C:
			frame, _ := gen.Next()
			if _, err := pw.Write(frame); err != nil {
				// reader closed
				return
			}
			written++
			if gen.cfg.Frames > 0 && written >= gen.cfg.Frames {
				slog.Debug("mock source finished", "frames", written)
				pw.Close()
				return
			}
		}
	}
}
