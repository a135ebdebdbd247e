package domain

import (
	"fmt"
	"time"
)

// Timeframe is either a named preset key or an explicit start/end pair.
// Exactly one representation is effective per query: when both are supplied,
// explicit bounds win and the key is discarded.
type Timeframe struct {
	Key   string     `json:"key,omitempty"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Preset keys understood by the upstream reporting API. The config layer may
// extend this set; these are always valid.
const (
	TimeframeToday      = "today"
	TimeframeYesterday  = "yesterday"
	TimeframeLast7Days  = "last_7_days"
	TimeframeLast30Days = "last_30_days"
	TimeframeLast90Days = "last_90_days"
	TimeframeThisMonth  = "this_month"
	TimeframeLastMonth  = "last_month"
)

// DefaultTimeframeKey is used when a query supplies neither a key nor bounds.
const DefaultTimeframeKey = TimeframeLast7Days

// IsBounded reports whether both explicit bounds are set.
func (tf Timeframe) IsBounded() bool { return tf.Start != nil && tf.End != nil }

// IsZero reports whether the timeframe carries no information at all.
func (tf Timeframe) IsZero() bool { return tf.Key == "" && tf.Start == nil && tf.End == nil }

// Resolve derives the single effective representation. Bounds beat the key;
// a fully empty timeframe falls back to the default preset.
func (tf Timeframe) Resolve() (Timeframe, error) {
	if tf.IsBounded() {
		if !tf.End.After(*tf.Start) {
			return Timeframe{}, fmt.Errorf("timeframe end %s must be after start %s",
				tf.End.Format(time.RFC3339), tf.Start.Format(time.RFC3339))
		}
		return Timeframe{Start: tf.Start, End: tf.End}, nil
	}
	if tf.Start != nil || tf.End != nil {
		return Timeframe{}, fmt.Errorf("timeframe start and end must be supplied together")
	}
	if tf.Key == "" {
		return Timeframe{Key: DefaultTimeframeKey}, nil
	}
	return Timeframe{Key: tf.Key}, nil
}

// Signature returns a stable string identifying the effective timeframe.
// Used as a cache-key dimension; two timeframes with the same signature
// produce the same upstream query.
func (tf Timeframe) Signature() string {
	if tf.IsBounded() {
		return fmt.Sprintf("%d-%d", tf.Start.UTC().Unix(), tf.End.UTC().Unix())
	}
	return "key:" + tf.Key
}
