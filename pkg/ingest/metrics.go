package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on the registerer given to NewMetrics, so several
// pipelines can live in one process without clashing.
type Metrics struct {
	// Downloads counts file content fetches by source: "network" or "cache".
	Downloads        *prometheus.CounterVec
	DownloadFailures prometheus.Counter
	Bytes            prometheus.Counter
	ArchiveMembers   *prometheus.CounterVec
	IndexTokens      prometheus.Gauge
	LoadDuration     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Downloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_ingest_downloads_total",
			Help: "File contents obtained by source",
		}, []string{"source"}),
		DownloadFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "mirror_ingest_download_failures_total",
			Help: "Files dropped because their content could not be obtained",
		}),
		Bytes: f.NewCounter(prometheus.CounterOpts{
			Name: "mirror_ingest_bytes_total",
			Help: "Bytes of file content after decompression",
		}),
		ArchiveMembers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_ingest_archive_members_total",
			Help: "Files extracted from archives by format",
		}, []string{"format"}),
		IndexTokens: f.NewGauge(prometheus.GaugeOpts{
			Name: "mirror_ingest_index_tokens",
			Help: "Tokens in the most recently built dataset index",
		}),
		LoadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mirror_ingest_load_duration_seconds",
			Help:    "Dataset load duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
	}
}
