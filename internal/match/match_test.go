package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/resilientops/watchdog/internal/config"
)

func berlinLogic() config.MatchLogic {
	return config.MatchLogic{
		Locations:          []string{"Berlin", "Mitte"},
		Topics:             []string{"Stromausfall", "Netzstörung"},
		NegativeKeywords:   []string{"Gewinnspiel"},
		RequireOneLocation: true,
		RequireOneTopic:    true,
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		logic    config.MatchLogic
		expected bool
		reason   string
	}{
		{
			name:     "location and topic hit",
			title:    "Stromausfall Berlin Mitte",
			logic:    berlinLogic(),
			expected: true,
			reason:   "has both a location and a topic term",
		},
		{
			name:     "case insensitive",
			title:    "STROMAUSFALL in berlin gemeldet",
			logic:    berlinLogic(),
			expected: true,
			reason:   "matching is case-insensitive substring",
		},
		{
			name:     "negative keyword vetoes",
			title:    "Gewinnspiel: Stromausfall Berlin Quiz",
			logic:    berlinLogic(),
			expected: false,
			reason:   "negatives win regardless of other hits",
		},
		{
			name:     "location without topic",
			title:    "Neues Schwimmbad in Berlin eröffnet",
			logic:    berlinLogic(),
			expected: false,
			reason:   "topic required but absent",
		},
		{
			name:     "topic without location",
			title:    "Stromausfall in München",
			logic:    berlinLogic(),
			expected: false,
			reason:   "location required but absent",
		},
		{
			name:  "location not required",
			title: "Stromausfall in München",
			logic: config.MatchLogic{
				Locations:          []string{"Berlin"},
				Topics:             []string{"Stromausfall"},
				RequireOneLocation: false,
				RequireOneTopic:    true,
			},
			expected: true,
			reason:   "only the topic requirement applies",
		},
		{
			name:  "nothing required accepts anything",
			title: "Irgendeine Meldung",
			logic: config.MatchLogic{
				RequireOneLocation: false,
				RequireOneTopic:    false,
			},
			expected: true,
			reason:   "no rules, no veto",
		},
		{
			name:  "empty keyword entries are ignored",
			title: "Stromausfall Berlin",
			logic: config.MatchLogic{
				Locations:          []string{"", "Berlin"},
				Topics:             []string{" ", "Stromausfall"},
				NegativeKeywords:   []string{""},
				RequireOneLocation: true,
				RequireOneTopic:    true,
			},
			expected: true,
			reason:   "blank keywords must not match everything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Match(tt.title, tt.logic), tt.reason)
		})
	}
}
