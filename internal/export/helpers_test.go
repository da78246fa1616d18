package export

import (
	"testing"

	"github.com/iksnae/armory-history/internal"
)

func sampleTimeline(t *testing.T) *internal.Timeline {
	t.Helper()
	raws := []string{
		`{"name":"Héro","level":1,"lastLogin":1700000000,"note":"<b>&</b>"}`,
		`{"name":"Héro","level":2,"lastLogin":1700003600,"note":"<b>&</b>","power":925.5}`,
	}

	timeline := &internal.Timeline{AccountID: "A1", Entity: "Hero", Source: "git"}
	for i, raw := range raws {
		snap, err := internal.DecodeSnapshot([]byte(raw))
		if err != nil {
			t.Fatalf("DecodeSnapshot() error = %v", err)
		}
		event := internal.ChangeEvent{
			Timestamp:  1700000000 + int64(i)*3600,
			RevisionID: []string{"0123456789abcdef", "fedcba9876543210"}[i],
			Data:       snap.Data(),
			Raw:        []byte(raw),
		}
		if i == 1 {
			event.Changed = []string{"level", "power"}
		}
		timeline.Events = append(timeline.Events, event)
	}
	return timeline
}
