// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は認証・APIメトリクスを収集するPrometheus実装。
type Collector struct {
	signupTotal       *prometheus.CounterVec
	signinTotal       *prometheus.CounterVec
	productKeysIssued prometheus.Counter
	tokenVerify       *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	requestDuration   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtor_signup_total",
			Help: "サインアップ試行の結果別合計数",
		}, []string{"outcome", "user_type"}),
		signinTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtor_signin_total",
			Help: "サインイン試行の結果別合計数",
		}, []string{"outcome"}),
		productKeysIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtor_product_keys_issued_total",
			Help: "発行されたプロダクトキーの合計数",
		}),
		tokenVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtor_token_verify_total",
			Help: "セッショントークン検証の結果別合計数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtor_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "realtor_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signupTotal,
		c.signinTotal,
		c.productKeysIssued,
		c.tokenVerify,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordSignup はサインアップ試行の結果を記録する。
// outcomeは "success"、"conflict"、"unauthorized"、"error" のいずれか。
func (c *Collector) RecordSignup(outcome string, userType string) {
	c.signupTotal.WithLabelValues(outcome, userType).Inc()
}

// RecordSignin はサインイン試行の結果を記録する。
// outcomeは "success" または "invalid_credentials"。
func (c *Collector) RecordSignin(outcome string) {
	c.signinTotal.WithLabelValues(outcome).Inc()
}

// RecordProductKeyIssued はプロダクトキー発行を記録する。
func (c *Collector) RecordProductKeyIssued() {
	c.productKeysIssued.Inc()
}

// RecordTokenVerify はセッショントークン検証の結果を記録する。
// resultは "ok"、"expired"、"invalid" のいずれか。
func (c *Collector) RecordTokenVerify(result string) {
	c.tokenVerify.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
