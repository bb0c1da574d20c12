package core

import "time"

// Reading is the envelope sent to reporters, one per decoded frame.
type Reading struct {
	Source    string    // Source name from configuration
	Seq       uint64    // 1-based position in the decoded sequence
	Timestamp time.Time // Time the frame was decoded
	Record    Record
	Variant   Variant // nil unless classification is enabled and succeeded
}

// Kind returns the variant kind, or "none" when the reading is unclassified.
func (r *Reading) Kind() string {
	if r.Variant == nil {
		return "none"
	}
	return r.Variant.Kind()
}

// Fields flattens the reading into a map for encoders that work on generic
// values. Absent record fields are omitted; power bands become a nested map.
// Only int, int64, uint32, uint64 and string values are produced.
func (r *Reading) Fields() map[string]any {
	m := map[string]any{
		"source":    r.Source,
		"seq":       r.Seq,
		"timestamp": r.Timestamp.UnixMilli(),
		"kind":      r.Kind(),
	}
	rec := r.Record
	if rec.SignalQuality != nil {
		m["signal_quality"] = int(*rec.SignalQuality)
	}
	if rec.Attention != nil {
		m["attention"] = int(*rec.Attention)
	}
	if rec.Meditation != nil {
		m["meditation"] = int(*rec.Meditation)
	}
	if rec.RawWave != nil {
		m["raw_wave"] = int(*rec.RawWave)
	}
	if p := rec.Power; p != nil {
		m["power"] = map[string]any{
			"delta":      p.Delta,
			"theta":      p.Theta,
			"low_alpha":  p.LowAlpha,
			"high_alpha": p.HighAlpha,
			"low_beta":   p.LowBeta,
			"high_beta":  p.HighBeta,
			"low_gamma":  p.LowGamma,
			"mid_gamma":  p.MidGamma,
		}
	}
	return m
}
