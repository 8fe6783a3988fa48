// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Package workflow runs the follow-up automation for new bookings: lead
// scoring, the integration fan-out and the scheduled nurture sequence.
package workflow

import (
	"strconv"
	"strings"

	"github.com/bluestem-events/bluestem/internal/model"
)

// Lead tiers.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// Tier thresholds.
const (
	highScoreThreshold   = 70
	mediumScoreThreshold = 40
)

// Score rates a booking from its budget, event type and guest count.
// Returns the numeric score and its tier.
func Score(b model.Booking) (int, string) {
	score := budgetPoints(b.Budget) + eventTypePoints(b.EventType) + guestPoints(b.GuestCount)

	switch {
	case score >= highScoreThreshold:
		return score, TierHigh
	case score >= mediumScoreThreshold:
		return score, TierMedium
	default:
		return score, TierLow
	}
}

func budgetPoints(budget string) int {
	amount := ParseBudget(budget)
	switch {
	case amount >= 10000:
		return 40
	case amount >= 5000:
		return 30
	case amount >= 2500:
		return 20
	case amount > 0:
		return 10
	default:
		return 0
	}
}

func eventTypePoints(eventType string) int {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "wedding":
		return 30
	case "corporate":
		return 25
	case "private", "party", "private party":
		return 15
	case "":
		return 0
	default:
		return 10
	}
}

func guestPoints(guests int64) int {
	switch {
	case guests >= 150:
		return 30
	case guests >= 75:
		return 20
	case guests >= 25:
		return 10
	case guests > 0:
		return 5
	default:
		return 0
	}
}

// ParseBudget extracts a dollar amount from free-text budget input such
// as "$12,000", "5k" or "8000-10000". Ranges use the lower bound.
// Unparseable input yields 0.
func ParseBudget(budget string) int64 {
	s := strings.ToLower(budget)

	// Keep the first run of digits, honoring a trailing k multiplier.
	var digits strings.Builder
	thousands := false
loop:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '$' || r == ',':
			// Currency formatting, ignore.
		case r == 'k' && digits.Len() > 0:
			thousands = true
			break loop
		default:
			if digits.Len() > 0 {
				break loop
			}
		}
	}

	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	if thousands {
		n *= 1000
	}
	return n
}
