package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelez/optionflow/internal/model"
)

// Detector flags contracts whose traded volume far exceeds open interest.
type Detector struct {
	threshold float64
}

// NewDetector creates a detector with the given volume/OI multiple.
func NewDetector(threshold float64) *Detector {
	return &Detector{threshold: threshold}
}

// Threshold returns the multiple in force.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Check returns a naked-position event when volume > openInterest × threshold,
// or nil. Contracts with zero volume or zero open interest are skipped: the
// ratio is meaningless there, not anomalous. The event records the threshold
// in force so historical rows stay interpretable if it changes later.
func (d *Detector) Check(c model.OptionContract) *model.NakedPositionEvent {
	if c.OpenInterest == 0 || c.Volume == 0 {
		return nil
	}

	if float64(c.Volume) <= float64(c.OpenInterest)*d.threshold {
		return nil
	}

	return &model.NakedPositionEvent{
		ID:           uuid.New(),
		Underlying:   c.Underlying,
		Symbol:       c.Symbol,
		Side:         c.Side,
		Strike:       c.Strike,
		Volume:       c.Volume,
		OpenInterest: c.OpenInterest,
		Ratio:        float64(c.Volume) / float64(c.OpenInterest),
		Threshold:    d.threshold,
		DetectedAt:   time.Now().UnixMicro(),
	}
}
