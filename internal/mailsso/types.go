package mailsso

// Statuses a validation result can carry. The provider's vocabulary is not
// contractual; anything unrecognized is passed through as-is, and a missing
// status is normalized to StatusUnknown.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusRisky   = "risky"
	StatusUnknown = "unknown"
)

// Result is one email's validation outcome. Immutable once constructed.
type Result struct {
	Email       string `json:"email"`
	Status      string `json:"result"`
	Reason      string `json:"reason,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Deliverable *bool  `json:"deliverable,omitempty"`
	CatchAll    *bool  `json:"catch_all,omitempty"`
	Generic     *bool  `json:"generic,omitempty"`
	Free        *bool  `json:"free,omitempty"`
}

// normalize fills defaults the provider may omit. A missing status is never
// fatal — it becomes "unknown".
func (r *Result) normalize(email string) {
	if r.Email == "" {
		r.Email = email
	}
	if r.Status == "" {
		r.Status = StatusUnknown
	}
}

// batchSubmitRequest is the body for POST /v1/batch.
type batchSubmitRequest struct {
	Emails     []string `json:"emails"`
	WebhookURL string   `json:"webhook_url,omitempty"`
}

// batchSubmitResponse wraps the provider's batch acceptance payload.
type batchSubmitResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// batchPollResponse wraps the provider's polled batch results.
type batchPollResponse struct {
	Data struct {
		Results []Result `json:"results"`
	} `json:"data"`
}
