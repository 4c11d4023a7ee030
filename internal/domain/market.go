package domain

import (
	"math"
	"time"
)

const (
	SourceCNN         = "cnn"
	SourceAlternative = "alternative.me"
	SourceCBOE        = "cboe"
)

const (
	LabelExtremeFear  = "extreme-fear"
	LabelFear         = "fear"
	LabelNeutral      = "neutral"
	LabelGreed        = "greed"
	LabelExtremeGreed = "extreme-greed"
)

// IndicatorReading is the last known value of one indicator. AsOf is the
// observation date (YYYY-MM-DD), not the fetch time.
type IndicatorReading struct {
	Value  *float64 `json:"value"`
	Label  *string  `json:"label"`
	AsOf   string   `json:"asOf"`
	Source string   `json:"source"`
}

// MarketSnapshot is the persisted state: the current reading per indicator
// plus a bounded trail of operational notes.
type MarketSnapshot struct {
	UpdatedAt time.Time         `json:"updatedAt"`
	FearGreed *IndicatorReading `json:"fearGreed"`
	VIX       *IndicatorReading `json:"vix"`
	Notes     []string          `json:"notes"`
}

func NewMarketSnapshot() *MarketSnapshot {
	return &MarketSnapshot{Notes: []string{}}
}

// AppendNote records a note, dropping the oldest entries when the list
// would exceed max. max <= 0 means unbounded.
func (s *MarketSnapshot) AppendNote(note string, max int) {
	s.Notes = append(s.Notes, note)
	if max > 0 && len(s.Notes) > max {
		s.Notes = s.Notes[len(s.Notes)-max:]
	}
}

// SnapshotRunResult summarizes one run: which indicators picked up a fresh
// value and what went wrong along the way.
type SnapshotRunResult struct {
	FearGreedRefreshed bool
	VIXRefreshed       bool
	Errors             []string
}

// FearGreedLabel buckets an index value: <25 extreme fear, <45 fear,
// <=55 neutral, <=74 greed, above that extreme greed.
func FearGreedLabel(v float64) string {
	switch {
	case v < 25:
		return LabelExtremeFear
	case v < 45:
		return LabelFear
	case v <= 55:
		return LabelNeutral
	case v <= 74:
		return LabelGreed
	default:
		return LabelExtremeGreed
	}
}

// NewFearGreedReading rounds the index to one decimal and attaches its label.
func NewFearGreedReading(value float64, asOf, source string) *IndicatorReading {
	v := math.Round(value*10) / 10
	label := FearGreedLabel(v)
	return &IndicatorReading{Value: &v, Label: &label, AsOf: asOf, Source: source}
}

// NewVIXReading rounds the close to two decimals. VIX carries no label.
func NewVIXReading(close float64, asOf string) *IndicatorReading {
	v := math.Round(close*100) / 100
	return &IndicatorReading{Value: &v, AsOf: asOf, Source: SourceCBOE}
}
