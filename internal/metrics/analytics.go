package metrics

import "github.com/prometheus/client_golang/prometheus"

// TableSizer reports the key counts of the bounded analytics frequency tables.
type TableSizer interface {
	TableSizes() (ecus, types, attackers int)
}

var analyticsKeysDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "analytics", "table_keys"),
	"Keys held by each bounded analytics frequency table",
	[]string{"table"}, nil,
)

// tableCollector reads table sizes at scrape time.
type tableCollector struct {
	src TableSizer
}

func (c tableCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- analyticsKeysDesc
}

func (c tableCollector) Collect(ch chan<- prometheus.Metric) {
	ecus, types, attackers := c.src.TableSizes()
	ch <- prometheus.MustNewConstMetric(analyticsKeysDesc, prometheus.GaugeValue, float64(ecus), "ecu")
	ch <- prometheus.MustNewConstMetric(analyticsKeysDesc, prometheus.GaugeValue, float64(types), "attack_type")
	ch <- prometheus.MustNewConstMetric(analyticsKeysDesc, prometheus.GaugeValue, float64(attackers), "attacker")
}

// TrackAnalytics exports the table sizes of src. Call it once per source.
func (r *Registry) TrackAnalytics(src TableSizer) {
	r.registry.MustRegister(tableCollector{src: src})
}
