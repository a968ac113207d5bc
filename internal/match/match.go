// Package match implements the keyword rule engine applied to entry titles.
package match

import (
	"strings"

	"github.com/resilientops/watchdog/internal/config"
)

// Match decides whether a title triggers an alert. Negative keywords veto
// immediately; otherwise at least one location term is required when
// RequireOneLocation is set, and at least one topic term when
// RequireOneTopic is set. All comparisons are case-insensitive substring
// checks. Pure function, no I/O.
func Match(title string, logic config.MatchLogic) bool {
	lower := strings.ToLower(title)

	if containsAny(lower, logic.NegativeKeywords) {
		return false
	}
	if logic.RequireOneLocation && !containsAny(lower, logic.Locations) {
		return false
	}
	if logic.RequireOneTopic && !containsAny(lower, logic.Topics) {
		return false
	}
	return true
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
