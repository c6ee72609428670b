package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleids/internal/attack"
	"vehicleids/pkg/models"
)

func alert(level models.Level, source, kind, ip string) models.Alert {
	return models.Alert{Level: level, Source: source, AttackType: kind, AttackerIP: ip}
}

func TestTimelineIsCappedFIFO(t *testing.T) {
	agg := NewAggregator(Config{})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		agg.RecordAt(base.Add(time.Duration(i)*time.Second), nil, false, attack.None)
	}

	rep := agg.Report()
	require.Len(t, rep.EventsTimeline, 200)
	for i, e := range rep.EventsTimeline {
		want := base.Add(time.Duration(i+50) * time.Second).Format("15:04:05")
		assert.Equal(t, want, e.Timestamp, "entry %d", i)
	}
}

func TestRecordCountsAlerts(t *testing.T) {
	agg := NewAggregator(Config{})
	agg.Record([]models.Alert{
		alert(models.LevelCritical, "Brake ECU", "Safety Violation", "1.1.1.1"),
		alert(models.LevelHigh, "Engine ECU", "Physical Implausibility", "2.2.2.2"),
		alert(models.LevelMedium, "rogue-node", "Custom", "1.1.1.1"),
	}, true, attack.BrakeSpoof)

	rep := agg.Report()
	require.Len(t, rep.EventsTimeline, 1)
	e := rep.EventsTimeline[0]
	assert.Equal(t, 3, e.TotalAlerts)
	assert.Equal(t, 2, e.CriticalAlerts)
	assert.True(t, e.AttackActive)

	assert.ElementsMatch(t, []models.ECUCount{{ECU: "Brake ECU", Count: 1}, {ECU: "Engine ECU", Count: 1}}, rep.TopECUTargets)
	assert.Equal(t, models.AttackerCount{Attacker: "1.1.1.1", Count: 2}, rep.TopAttackers[0])

	types := map[string]int{}
	for _, tc := range rep.TopAttackTypes {
		types[tc.Type] = tc.Count
	}
	assert.Equal(t, 1, types["MODE: brake_spoof"])
	assert.Equal(t, 1, types["Custom"])
}

func TestModeCountedOncePerTick(t *testing.T) {
	agg := NewAggregator(Config{})
	for i := 0; i < 3; i++ {
		agg.Record(nil, true, attack.Flood)
	}
	agg.Record(nil, false, attack.None)

	rep := agg.Report()
	require.Len(t, rep.TopAttackTypes, 1)
	assert.Equal(t, models.TypeCount{Type: "MODE: flood", Count: 3}, rep.TopAttackTypes[0])
	assert.Empty(t, rep.TopECUTargets)
	assert.Empty(t, rep.TopAttackers)
}

func TestTopNOrdering(t *testing.T) {
	agg := NewAggregator(Config{TopN: 5})
	for i := 0; i < 8; i++ {
		var alerts []models.Alert
		for j := 0; j <= i; j++ {
			alerts = append(alerts, alert(models.LevelHigh, "x", fmt.Sprintf("type-%d", i), "9.9.9.9"))
		}
		agg.Record(alerts, true, attack.None)
	}

	rep := agg.Report()
	require.Len(t, rep.TopAttackTypes, 5)
	for i, tc := range rep.TopAttackTypes {
		assert.Equal(t, fmt.Sprintf("type-%d", 7-i), tc.Type)
		assert.Equal(t, 8-i, tc.Count)
	}
}

func TestMaxKeysEvictsLeastFrequent(t *testing.T) {
	agg := NewAggregator(Config{MaxKeys: 2})
	agg.Record([]models.Alert{
		alert(models.LevelHigh, "Engine ECU", "A", "10.0.0.1"),
		alert(models.LevelHigh, "Engine ECU", "A", "10.0.0.1"),
		alert(models.LevelHigh, "Engine ECU", "B", "10.0.0.2"),
	}, true, attack.None)
	agg.Record([]models.Alert{alert(models.LevelHigh, "Engine ECU", "C", "10.0.0.3")}, true, attack.None)

	_, types, attackers := agg.TableSizes()
	assert.Equal(t, 2, types)
	assert.Equal(t, 2, attackers)

	rep := agg.Report()
	assert.Equal(t, []models.TypeCount{{Type: "A", Count: 2}, {Type: "C", Count: 1}}, rep.TopAttackTypes)
}

func TestReportIsACopy(t *testing.T) {
	agg := NewAggregator(Config{})
	agg.Record(nil, false, attack.None)
	rep := agg.Report()
	rep.EventsTimeline[0].TotalAlerts = 99

	assert.Equal(t, 0, agg.Report().EventsTimeline[0].TotalAlerts)
}

func TestTimelineSizeCannotExceedCap(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		size int
		want int
	}{
		{"oversized", 5000, MaxTimelineSize},
		{"smaller", 20, 20},
		{"zero", 0, DefaultTimelineSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(Config{TimelineSize: tt.size})
			for i := 0; i < 300; i++ {
				agg.RecordAt(base.Add(time.Duration(i)*time.Second), nil, false, attack.None)
			}
			assert.Len(t, agg.Report().EventsTimeline, tt.want)
		})
	}
}
