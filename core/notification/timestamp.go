package notification

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// EpochSeconds is the seconds/nanos shape timestamps take in exported documents.
type EpochSeconds struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanoseconds"`
}

// Millis normalises the timestamp representations notifications come with to milliseconds since epoch.
// Missing, zero or unknown values count as 0 so they sort last.
func Millis(ts interface{}) int64 {
	switch v := ts.(type) {
	case nil:
		return 0
	case interface{ ToMillis() int64 }:
		return v.ToMillis()
	case time.Time:
		if v.IsZero() {
			return 0
		}
		return v.UnixMilli()
	case *time.Time:
		if v == nil {
			return 0
		}
		return Millis(*v)
	case *timestamppb.Timestamp:
		if v == nil || !v.IsValid() {
			return 0
		}
		return v.AsTime().UnixMilli()
	case interface{ AsTime() time.Time }:
		return Millis(v.AsTime())
	case EpochSeconds:
		return v.Seconds*1000 + v.Nanos/int64(time.Millisecond)
	case *EpochSeconds:
		if v == nil {
			return 0
		}
		return Millis(*v)
	case map[string]interface{}:
		secs, ok := number(v["seconds"])
		if !ok {
			secs, ok = number(v["_seconds"])
		}
		if !ok {
			return 0
		}
		nanos, _ := number(v["nanoseconds"])
		if nanos == 0 {
			nanos, _ = number(v["_nanoseconds"])
		}
		return int64(secs)*1000 + int64(nanos)/int64(time.Millisecond)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

// SortNewestFirst orders notifications by timestamp, newest first. Ties keep their relative order.
func SortNewestFirst(items []Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		return Millis(items[i].Timestamp) > Millis(items[j].Timestamp)
	})
}

// parseTimestamp decodes any of the JSON shapes a notification timestamp may take:
// RFC 3339 string, epoch milliseconds, {seconds, nanoseconds} object or null.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC()
		}
		return time.Time{}
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return time.Time{}
	}
	ms := Millis(v)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
