package models

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeAction       = "action"
	WSTypeActionResult = "action_result"
	WSTypeWelcome      = "welcome"
)

// ActionRequest is the boundary RPC envelope shared by the popup, background
// worker and content scripts. Only the fields relevant to Action are read.
type ActionRequest struct {
	RequestID string   `json:"request_id,omitempty"`
	Action    string   `json:"action"`
	Enabled   *bool    `json:"enabled,omitempty"`
	URL       string   `json:"url,omitempty"`
	Domain    string   `json:"domain,omitempty"`
	Seconds   int64    `json:"seconds,omitempty"`
	ID        string   `json:"id,omitempty"`
	Title     string   `json:"title,omitempty"`
	Body      string   `json:"body,omitempty"`
	RemindAt  string   `json:"remind_at,omitempty"`
	Index     *int     `json:"index,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Playlist  []Track  `json:"playlist,omitempty"`
}

type ActionResponse struct {
	RequestID string      `json:"request_id,omitempty"`
	OK        bool        `json:"ok"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type CheckURLResult struct {
	Blocked     bool   `json:"blocked"`
	RedirectURL string `json:"redirect_url,omitempty"`
}
