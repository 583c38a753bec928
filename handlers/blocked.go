package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"focus-server/blocklist"
	"focus-server/models"
)

const blockedFallbackHost = "Distraction blocked"

var focusQuotes = []string{
	"The key is not to prioritize what's on your schedule, but to schedule your priorities.",
	"Focus is a matter of deciding what things you're not going to do.",
	"Concentration is the secret of strength.",
	"Where focus goes, energy flows.",
	"The successful warrior is the average man, with laser-like focus.",
	"It's not always that we need to do more but rather that we need to focus on less.",
	"Lack of direction, not lack of time, is the problem.",
	"The shorter way to do many things is to only do one thing at a time.",
	"Starve your distractions, feed your focus.",
	"One reason so few of us achieve what we truly want is that we never direct our focus.",
	"Success is the product of daily habits, not once-in-a-lifetime transformations.",
	"You don't have to be great to start, but you have to start to be great.",
	"The difference between ordinary and extraordinary is that little extra.",
	"Your focus determines your reality.",
	"What you focus on grows, what you think about expands.",
}

// BlockedHandler backs the page shown in place of a blocked site.
type BlockedHandler struct {
	mu   sync.Mutex
	next int
}

func NewBlockedHandler() *BlockedHandler {
	return &BlockedHandler{}
}

// Info returns the blocked host and the next quote in rotation.
func (h *BlockedHandler) Info(w http.ResponseWriter, r *http.Request) {
	host := blocklist.Hostname(r.URL.Query().Get("site"))
	if host == "" {
		host = blockedFallbackHost
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.BlockedPageInfo{
		Host:  host,
		Quote: h.nextQuote(),
	})
}

func (h *BlockedHandler) nextQuote() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	q := focusQuotes[h.next]
	h.next = (h.next + 1) % len(focusQuotes)
	return q
}
