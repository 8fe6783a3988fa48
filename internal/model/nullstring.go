// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"encoding/json"
)

// NullString is sql.NullString with JSON rendering as a string or null.
type NullString struct {
	sql.NullString
}

// NullStringFrom returns a valid NullString for s.
func NullStringFrom(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: true}}
}

func (s NullString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.String)
}

func (s *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.Valid = false
		s.String = ""
		return nil
	}
	if err := json.Unmarshal(data, &s.String); err != nil {
		return err
	}
	s.Valid = true
	return nil
}
