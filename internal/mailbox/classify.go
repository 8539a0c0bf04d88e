// Copyright (C) 2025  The vigilmail authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mailbox

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/models"
)

func init() {
	viper.SetDefault("classify.keywords.high", []string{
		"urgent", "critical", "emergency", "outage", "down", "immediately",
	})
	viper.SetDefault("classify.keywords.medium", []string{
		"important", "attention", "warning", "error", "problem", "issue",
	})
	viper.SetDefault("classify.keywords.low", []string{
		"info", "notice", "reminder",
	})
}

// Classifier assigns a priority to mails based on keyword lists from the
// configuration.
type Classifier struct {
	tiers []keywordTier
}

type keywordTier struct {
	priority models.Priority
	keywords []string
}

// NewClassifier creates a new Classifier using the keyword lists from viper.
func NewClassifier() *Classifier {
	return &Classifier{
		tiers: []keywordTier{
			{models.PriorityHigh, lowercaseSlice(viper.GetStringSlice("classify.keywords.high"))},
			{models.PriorityMedium, lowercaseSlice(viper.GetStringSlice("classify.keywords.medium"))},
			{models.PriorityLow, lowercaseSlice(viper.GetStringSlice("classify.keywords.low"))},
		},
	}
}

// Classify returns the priority of the highest tier with a keyword match in
// either subject or body. Mails without any match fall into the lowest tier.
func (c *Classifier) Classify(subject, body string) models.Priority {
	var (
		subjectLower = strings.ToLower(subject)
		bodyLower    = strings.ToLower(body)
	)

	for _, tier := range c.tiers {
		for _, keyword := range tier.keywords {
			if strings.Contains(subjectLower, keyword) || strings.Contains(bodyLower, keyword) {
				return tier.priority
			}
		}
	}

	return models.PriorityLow
}

func lowercaseSlice(s []string) []string {
	lowered := make([]string, len(s))
	for i, v := range s {
		lowered[i] = strings.ToLower(v)
	}

	return lowered
}
