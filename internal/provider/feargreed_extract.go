package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"market-pulse/internal/domain"
)

const dateLayout = "2006-01-02"

// The graphdata endpoint serves JSON when it likes the caller and HTML
// interstitials when it does not, and its field names have shifted over the
// years. Extraction is a chain of increasingly blunt attempts: structured
// walk, regex scan, numeric leaf scan.

var (
	scoreRe   = regexp.MustCompile(`"score"\s*:\s*"?([0-9]+(?:\.[0-9]+)?)"?`)
	fngTextRe = regexp.MustCompile(`(?i)fear\s*&?(?:amp;)?\s*greed[^0-9]{0,40}([0-9]{1,3})`)
)

var containerKeys = []string{"fear_and_greed", "fearandgreed", "fng", "current"}

var valueKeys = []string{"score", "value", "now"}

var whenKeys = []string{"timestamp", "updated", "as_of", "date"}

// ExtractFearGreed pulls the current index value out of a raw graphdata
// payload. now supplies the observation date when the payload carries none.
func ExtractFearGreed(raw []byte, now time.Time) (*FearGreedPoint, error) {
	var root map[string]any
	parsed := json.Unmarshal(raw, &root) == nil

	if parsed {
		if point, ok := extractStructured(root, now); ok {
			return point, nil
		}
	}
	if point, ok := extractByRegex(string(raw), now); ok {
		return point, nil
	}
	if parsed {
		if v, ok := scanNumericLeaf(root); ok {
			return &FearGreedPoint{Value: v, AsOf: now.UTC().Format(dateLayout)}, nil
		}
	}
	return nil, fmt.Errorf("%w: no fear & greed value recognized in payload", domain.ErrExtraction)
}

// extractStructured walks the known payload shapes: a current-value object
// under one of the usual container keys (or the root itself), then the last
// point of the historical series.
func extractStructured(root map[string]any, now time.Time) (*FearGreedPoint, bool) {
	containers := []map[string]any{root}
	for _, key := range containerKeys {
		if child, ok := root[key].(map[string]any); ok {
			containers = append(containers, child)
		}
	}
	for _, container := range containers {
		for _, key := range valueKeys {
			v, ok := numericField(container, key)
			if !ok || !inIndexRange(v) {
				continue
			}
			return &FearGreedPoint{Value: v, AsOf: observationDate(container, now)}, true
		}
	}

	hist, ok := root["fear_and_greed_historical"].(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := hist["data"].([]any)
	if !ok || len(data) == 0 {
		return nil, false
	}
	last, ok := data[len(data)-1].(map[string]any)
	if !ok {
		return nil, false
	}
	y, ok := numericField(last, "y")
	if !ok || !inIndexRange(y) {
		return nil, false
	}
	asOf := now.UTC().Format(dateLayout)
	if x, ok := numericField(last, "x"); ok {
		asOf = epochToTime(int64(x)).Format(dateLayout)
	}
	return &FearGreedPoint{Value: y, AsOf: asOf}, true
}

func extractByRegex(text string, now time.Time) (*FearGreedPoint, bool) {
	for _, re := range []*regexp.Regexp{scoreRe, fngTextRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || !inIndexRange(v) {
			continue
		}
		return &FearGreedPoint{Value: v, AsOf: now.UTC().Format(dateLayout)}, true
	}
	return nil, false
}

// scanNumericLeaf is the last resort: a deterministic depth-first walk over
// every numeric leaf, first value inside the index range wins. Keys are
// visited in sorted order so the result does not depend on map iteration.
func scanNumericLeaf(node any) (float64, bool) {
	switch v := node.(type) {
	case float64:
		if inIndexRange(v) {
			return v, true
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if val, ok := scanNumericLeaf(v[k]); ok {
				return val, true
			}
		}
	case []any:
		for _, item := range v {
			if val, ok := scanNumericLeaf(item); ok {
				return val, true
			}
		}
	}
	return 0, false
}

func inIndexRange(v float64) bool {
	return v >= 0 && v <= 100
}

// numericField reads a number that may arrive as a JSON number or a numeric
// string.
func numericField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// observationDate looks for a timestamp sibling of the value field, falling
// back to now.
func observationDate(container map[string]any, now time.Time) string {
	for _, key := range whenKeys {
		v, ok := container[key]
		if !ok {
			continue
		}
		if ts, ok := parseWhen(v); ok {
			return ts.Format(dateLayout)
		}
	}
	return now.UTC().Format(dateLayout)
}

func parseWhen(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return epochToTime(int64(t)), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochToTime(n), true
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", dateLayout} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func epochToTime(n int64) time.Time {
	if n > 1_000_000_000_000 {
		n = n / 1000
	}
	return time.Unix(n, 0).UTC()
}
