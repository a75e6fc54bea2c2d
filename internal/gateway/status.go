package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds float64         `json:"uptime_seconds"`
	Metrics       MetricsSnapshot `json:"metrics"`
	PendingJobs   int             `json:"pending_jobs"`
	CreditsUsed   int64           `json:"credits_used"`
	CreditLimit   int64           `json:"credit_limit"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: time.Since(g.startedAt).Truncate(time.Second).Seconds(),
			Metrics:       g.metrics.Snapshot(),
		}

		if g.correlations != nil {
			resp.PendingJobs = g.correlations.Pending()
		}
		if g.credits != nil {
			resp.CreditsUsed = g.credits.Used()
			resp.CreditLimit = g.credits.Limit()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
