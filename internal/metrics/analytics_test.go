package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleids/internal/analytics"
	"vehicleids/internal/attack"
	"vehicleids/pkg/models"
)

type fixedSizes struct{ ecus, types, attackers int }

func (f fixedSizes) TableSizes() (int, int, int) { return f.ecus, f.types, f.attackers }

func TestTableCollector(t *testing.T) {
	const want = `
# HELP vehicleids_analytics_table_keys Keys held by each bounded analytics frequency table
# TYPE vehicleids_analytics_table_keys gauge
vehicleids_analytics_table_keys{table="attack_type"} 3
vehicleids_analytics_table_keys{table="attacker"} 7
vehicleids_analytics_table_keys{table="ecu"} 2
`
	c := tableCollector{src: fixedSizes{ecus: 2, types: 3, attackers: 7}}
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(want)))
}

func TestTrackAnalyticsFollowsAggregator(t *testing.T) {
	r := NewRegistry()
	agg := analytics.NewAggregator(analytics.Config{})
	r.TrackAnalytics(agg)

	agg.Record([]models.Alert{
		{Level: models.LevelHigh, Source: "Brake ECU", AttackType: "Brake Spoofing", AttackerIP: "10.0.0.1"},
		{Level: models.LevelHigh, Source: "Brake ECU", AttackType: "Brake Spoofing", AttackerIP: "10.0.0.2"},
	}, true, attack.BrakeSpoof)

	n, err := testutil.GatherAndCount(r.Gatherer(), "vehicleids_analytics_table_keys")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	const want = `
# HELP vehicleids_analytics_table_keys Keys held by each bounded analytics frequency table
# TYPE vehicleids_analytics_table_keys gauge
vehicleids_analytics_table_keys{table="attack_type"} 2
vehicleids_analytics_table_keys{table="attacker"} 2
vehicleids_analytics_table_keys{table="ecu"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(want), "vehicleids_analytics_table_keys"))
}
