// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthMetricsCollector は認証フローのメトリクス収集インターフェース。
// ハンドラーとミドルウェアから利用する。
type AuthMetricsCollector interface {
	RecordRegisterSuccess()
	RecordRegisterConflict()
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordTokenRejected(reason string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registerSuccess  prometheus.Counter
	registerConflict prometheus.Counter
	loginSuccess     prometheus.Counter
	loginFail        prometheus.Counter
	tokenRejected    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registerSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_register_success_total",
			Help: "ユーザー登録成功の合計数",
		}),
		registerConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_register_conflict_total",
			Help: "メールアドレス重複による登録失敗の合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_login_fail_total",
			Help: "ログイン失敗の合計数（原因は区別しない）",
		}),
		tokenRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_token_rejected_total",
			Help: "トークン検証拒否の合計数（理由別）",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.registerSuccess,
		c.registerConflict,
		c.loginSuccess,
		c.loginFail,
		c.tokenRejected,
	)

	return c
}

// RecordRegisterSuccess は登録成功を記録する。
func (c *Collector) RecordRegisterSuccess() {
	c.registerSuccess.Inc()
}

// RecordRegisterConflict はメールアドレス重複による登録失敗を記録する。
func (c *Collector) RecordRegisterConflict() {
	c.registerConflict.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
// 統一失敗ポリシーに合わせ、原因別のラベルは持たせない。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordTokenRejected はトークン検証拒否を理由別に記録する。
// reasonは"expired"または"malformed"。
func (c *Collector) RecordTokenRejected(reason string) {
	c.tokenRejected.WithLabelValues(reason).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
