package repository

import (
	"testing"
	"time"
)

func TestKeysetCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	cursor := formatKeysetCursor(ts, 42)

	gotTime, gotID, err := parseKeysetCursor(cursor)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if gotID != 42 {
		t.Errorf("id = %d, want 42", gotID)
	}
	if !gotTime.Equal(ts) {
		t.Errorf("time = %v, want %v", gotTime, ts)
	}
}

func TestParseKeysetCursor_Invalid(t *testing.T) {
	tests := []string{
		"",
		"42",
		"abc:def",
		"42:99:7",
	}

	for _, cursor := range tests {
		if _, _, err := parseKeysetCursor(cursor); err == nil {
			t.Errorf("parseKeysetCursor(%q) expected error, got nil", cursor)
		}
	}
}
