// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullTime is sql.NullTime with JSON rendering as RFC 3339 or null.
type NullTime struct {
	sql.NullTime
}

// NullTimeFrom returns a valid NullTime for t.
func NullTimeFrom(t time.Time) NullTime {
	return NullTime{sql.NullTime{Time: t, Valid: true}}
}

func (t NullTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

func (t *NullTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &t.Time); err != nil {
		return err
	}
	t.Valid = true
	return nil
}
