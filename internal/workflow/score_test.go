// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"testing"

	"github.com/bluestem-events/bluestem/internal/model"
)

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"5000", 5000},
		{"$5,000", 5000},
		{"$12,000", 12000},
		{"5k", 5000},
		{"10K", 10000},
		{"8000-10000", 8000},
		{"around 2500", 2500},
		{"tbd", 0},
		{"none yet", 0},
	}
	for _, tt := range tests {
		if got := ParseBudget(tt.in); got != tt.want {
			t.Errorf("ParseBudget(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		booking  model.Booking
		wantMin  int
		wantTier string
	}{
		{
			name: "large wedding is high tier",
			booking: model.Booking{
				Budget: "$15,000", EventType: "wedding", GuestCount: 200,
			},
			wantMin:  100,
			wantTier: TierHigh,
		},
		{
			name: "corporate mid-size is high tier",
			booking: model.Booking{
				Budget: "6000", EventType: "corporate", GuestCount: 80,
			},
			wantMin:  75,
			wantTier: TierHigh,
		},
		{
			name: "small party is medium tier",
			booking: model.Booking{
				Budget: "3000", EventType: "party", GuestCount: 30,
			},
			wantMin:  45,
			wantTier: TierMedium,
		},
		{
			name:     "empty booking is low tier",
			booking:  model.Booking{},
			wantMin:  0,
			wantTier: TierLow,
		},
		{
			name: "unknown event type gets base points",
			booking: model.Booking{
				Budget: "1000", EventType: "retreat", GuestCount: 10,
			},
			wantMin:  25,
			wantTier: TierLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, tier := Score(tt.booking)
			if score < tt.wantMin {
				t.Errorf("score = %d, want >= %d", score, tt.wantMin)
			}
			if tier != tt.wantTier {
				t.Errorf("tier = %q, want %q (score %d)", tier, tt.wantTier, score)
			}
		})
	}
}

func TestScoreTierBoundaries(t *testing.T) {
	// wedding (30) + 2500 budget (20) + 25 guests (10) = 60 → medium
	score, tier := Score(model.Booking{EventType: "wedding", Budget: "2500", GuestCount: 25})
	if score != 60 || tier != TierMedium {
		t.Errorf("got score %d tier %q, want 60 medium", score, tier)
	}

	// wedding (30) + 5000 budget (30) + 25 guests (10) = 70 → high
	score, tier = Score(model.Booking{EventType: "wedding", Budget: "5000", GuestCount: 25})
	if score != 70 || tier != TierHigh {
		t.Errorf("got score %d tier %q, want 70 high", score, tier)
	}
}
