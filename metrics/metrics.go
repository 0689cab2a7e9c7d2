// Package metrics provides Prometheus metrics for the depth reader
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecordsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depth_records_decoded_total",
		Help: "成功解码的深度记录数",
	}, []string{"segment"})

	RecordsMalformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depth_records_malformed_total",
		Help: "长度不足或读取失败的记录数",
	}, []string{"segment"})

	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depth_records_unchanged_total",
		Help: "时间戳未前进而跳过的记录数",
	}, []string{"segment"})

	TrailingBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "depth_segment_trailing_bytes",
		Help: "段尾被丢弃的不完整记录字节数",
	}, []string{"segment"})

	SegmentBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "depth_segment_bytes",
		Help: "共享内存段大小",
	}, []string{"segment"})

	ScanLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depth_scan_seconds",
		Help:    "单次扫描整个段的耗时",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
	}, []string{"segment"})

	LastPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "depth_last_price",
		Help: "最新快照的 price 字段（生产者整数单位）",
	}, []string{"segment"})

	LastTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "depth_last_timestamp",
		Help: "最新快照的 timestamp 字段",
	}, []string{"segment"})
)

// ScanResult 汇总一次扫描，供 ObserveScan 使用。
type ScanResult struct {
	Decoded   int
	Malformed int
	Skipped   int
	Trailing  int
	Bytes     int
	Elapsed   time.Duration
}

// ObserveScan 更新一次扫描相关的指标。
func ObserveScan(segment string, r ScanResult) {
	RecordsDecoded.WithLabelValues(segment).Add(float64(r.Decoded))
	RecordsMalformed.WithLabelValues(segment).Add(float64(r.Malformed))
	RecordsSkipped.WithLabelValues(segment).Add(float64(r.Skipped))
	TrailingBytes.WithLabelValues(segment).Set(float64(r.Trailing))
	SegmentBytes.WithLabelValues(segment).Set(float64(r.Bytes))
	ScanLatency.WithLabelValues(segment).Observe(r.Elapsed.Seconds())
}

// UpdateLatest 记录最新快照的价格与时间戳。
func UpdateLatest(segment string, price, timestamp int64) {
	LastPrice.WithLabelValues(segment).Set(float64(price))
	LastTimestamp.WithLabelValues(segment).Set(float64(timestamp))
}

// Handler 返回 /metrics 处理器，由进程的 HTTP 服务挂载。
func Handler() http.Handler {
	return promhttp.Handler()
}
