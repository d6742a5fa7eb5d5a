package notification

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type millisStamp int64

func (m millisStamp) ToMillis() int64 { return int64(m) }

func TestMillis(t *testing.T) {
	ref := time.Date(2024, time.March, 1, 10, 30, 0, 250*int(time.Millisecond), time.UTC)
	refMs := ref.UnixMilli()

	tests := []struct {
		name string
		ts   interface{}
		want int64
	}{
		{name: "nil", ts: nil, want: 0},
		{name: "zero time", ts: time.Time{}, want: 0},
		{name: "time", ts: ref, want: refMs},
		{name: "time pointer", ts: &ref, want: refMs},
		{name: "nil time pointer", ts: (*time.Time)(nil), want: 0},
		{name: "protobuf timestamp", ts: timestamppb.New(ref), want: refMs},
		{name: "nil protobuf timestamp", ts: (*timestamppb.Timestamp)(nil), want: 0},
		{name: "to millis", ts: millisStamp(refMs), want: refMs},
		{name: "epoch seconds", ts: EpochSeconds{Seconds: ref.Unix(), Nanos: 250 * int64(time.Millisecond)}, want: refMs},
		{name: "seconds map", ts: map[string]interface{}{"seconds": float64(ref.Unix()), "nanoseconds": float64(250 * time.Millisecond)}, want: refMs},
		{name: "underscored seconds map", ts: map[string]interface{}{"_seconds": float64(ref.Unix())}, want: ref.Unix() * 1000},
		{name: "map without seconds", ts: map[string]interface{}{"foo": 1}, want: 0},
		{name: "millis number", ts: float64(refMs), want: refMs},
		{name: "unknown", ts: "yesterday", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Millis(tt.ts))
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	now := time.Now().UTC()
	items := []Notification{
		{ID: "missing"},
		{ID: "old", Timestamp: now.Add(-2 * time.Hour)},
		{ID: "new", Timestamp: now},
		{ID: "mid", Timestamp: now.Add(-time.Hour)},
		{ID: "missing2"},
	}
	SortNewestFirst(items)

	ids := make([]string, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old", "missing", "missing2"}, ids)
}

func TestNotification_UnmarshalJSON(t *testing.T) {
	ref := time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   string
		want time.Time
	}{
		{name: "rfc3339", ts: `"2024-03-01T10:30:00Z"`, want: ref},
		{name: "millis", ts: "1709289000000", want: ref},
		{name: "seconds object", ts: `{"seconds": 1709289000, "nanoseconds": 0}`, want: ref},
		{name: "null", ts: "null", want: time.Time{}},
		{name: "garbage string", ts: `"soon"`, want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Notification
			data := []byte(`{"id": "n1", "title": "Hi", "type": "info", "timestamp": ` + tt.ts + `}`)
			require.NoError(t, json.Unmarshal(data, &n))
			assert.Equal(t, "n1", n.ID)
			assert.Equal(t, "Hi", n.Title)
			assert.Equal(t, TypeInfo, n.Type)
			assert.True(t, tt.want.Equal(n.Timestamp), "got %v, want %v", n.Timestamp, tt.want)
		})
	}
}

func TestSortNewestFirst_MixedShapes(t *testing.T) {
	base := time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)
	at := func(d time.Duration) time.Time { return base.Add(d) }
	seconds := func(ts time.Time) string {
		pb := timestamppb.New(ts)
		return fmt.Sprintf(`{"seconds": %d, "nanoseconds": %d}`, pb.GetSeconds(), pb.GetNanos())
	}
	millis := func(ts time.Time) string { return fmt.Sprint(ts.UnixMilli()) }
	rfc := func(ts time.Time) string { return `"` + ts.Format(time.RFC3339Nano) + `"` }

	// each shape holds early and late entries, so the order only comes out right across shapes
	docs := []struct {
		id string
		ts string
	}{
		{"rfc-0", rfc(at(0))},
		{"secs-1", seconds(at(time.Minute))},
		{"ms-2", millis(at(2 * time.Minute))},
		{"rfc-3", rfc(at(3 * time.Minute))},
		{"secs-4", seconds(at(4*time.Minute + 250*time.Millisecond))},
		{"ms-4", millis(at(4*time.Minute + 500*time.Millisecond))},
		{"rfc-5", rfc(at(5 * time.Minute))},
		{"none", "null"},
		{"ms-6", millis(at(6 * time.Minute))},
		{"secs-7", seconds(at(7 * time.Minute))},
	}
	items := make([]Notification, len(docs))
	for i, d := range docs {
		data := []byte(`{"id": "` + d.id + `", "title": "t", "type": "info", "timestamp": ` + d.ts + `}`)
		require.NoError(t, json.Unmarshal(data, &items[i]), d.id)
	}

	SortNewestFirst(items)

	ids := make([]string, len(items))
	for i, n := range items {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"secs-7", "ms-6", "rfc-5", "ms-4", "secs-4", "rfc-3", "ms-2", "secs-1", "rfc-0", "none"}, ids)
	for i := 1; i < len(items)-1; i++ {
		assert.Greater(t, Millis(items[i-1].Timestamp), Millis(items[i].Timestamp), "strictly descending at %d", i)
	}
}
