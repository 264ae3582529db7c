// Package metrics 定义助手相关的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 每轮对话的结果
const (
	OutcomeText          = "text"
	OutcomeCarousel      = "carousel"
	OutcomeNoProducts    = "no_products"
	OutcomeCatalogError  = "catalog_error"
	OutcomeUnknownTool   = "unknown_tool"
	OutcomeEmptyResponse = "empty_response"
	OutcomeFallback      = "fallback"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "popcorn",
		Subsystem: "assistant",
		Name:      "turns_total",
		Help:      "Assistant turns by outcome.",
	}, []string{"outcome"})

	modelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "popcorn",
		Subsystem: "assistant",
		Name:      "model_call_seconds",
		Help:      "Latency of model completion calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
	}, []string{"provider", "result"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "popcorn",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Chat events published to the event bus.",
	}, []string{"result"})
)

// ObserveTurn 记录一轮对话的结果
func ObserveTurn(outcome string) {
	turnsTotal.WithLabelValues(outcome).Inc()
}

// ObserveModelCall 记录一次模型调用的耗时
func ObserveModelCall(provider string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	modelLatency.WithLabelValues(provider, result).Observe(elapsed.Seconds())
}

// ObservePublish 记录事件发布结果
func ObservePublish(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsPublished.WithLabelValues(result).Inc()
}

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
