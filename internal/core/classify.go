package core

import "fmt"

// Variant is a Record reinterpreted as one complete shape.
// Implemented by WaveSample and AggregateReading only.
type Variant interface {
	// Kind returns "wave_sample" or "aggregate".
	Kind() string
	isVariant()
}

// WaveSample is a frame carrying a raw waveform sample.
type WaveSample struct {
	Value int16 `json:"value" yaml:"value"`
}

// AggregateReading is the once-per-second frame with eSense values and band powers.
type AggregateReading struct {
	SignalQuality uint8      `json:"signal_quality" yaml:"signal_quality"`
	Attention     uint8      `json:"attention" yaml:"attention"`
	Meditation    uint8      `json:"meditation" yaml:"meditation"`
	Power         PowerBands `json:"power" yaml:"power"`
}

func (WaveSample) Kind() string       { return "wave_sample" }
func (AggregateReading) Kind() string { return "aggregate" }

func (WaveSample) isVariant()       {}
func (AggregateReading) isVariant() {}

// Classify maps a Record onto a Variant.
//
// The aggregate shape is checked first: a Record holding signal quality,
// attention, meditation and power bands is an AggregateReading even if it
// also carries a raw wave value, which is then dropped. Otherwise a Record
// holding a raw wave value and nothing else is a WaveSample. Anything else,
// including a raw wave mixed with a partial aggregate, yields ErrUnclassifiable.
func Classify(r Record) (Variant, error) {
	if r.SignalQuality != nil && r.Attention != nil && r.Meditation != nil && r.Power != nil {
		return AggregateReading{
			SignalQuality: *r.SignalQuality,
			Attention:     *r.Attention,
			Meditation:    *r.Meditation,
			Power:         *r.Power,
		}, nil
	}
	if r.RawWave != nil && r.SignalQuality == nil && r.Attention == nil &&
		r.Meditation == nil && r.Power == nil {
		return WaveSample{Value: *r.RawWave}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnclassifiable, r.fieldSummary())
}

func (r Record) fieldSummary() string {
	present := func(ok bool) string {
		if ok {
			return "+"
		}
		return "-"
	}
	return fmt.Sprintf("signal%s attention%s meditation%s raw%s power%s",
		present(r.SignalQuality != nil),
		present(r.Attention != nil),
		present(r.Meditation != nil),
		present(r.RawWave != nil),
		present(r.Power != nil),
	)
}
