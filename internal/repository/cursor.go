package repository

import (
	"fmt"
	"strings"
	"time"
)

// Keyset cursors are "id:unixSeconds" of the last row on the previous page.
// Paging on (created_at, id) stays consistent when rows are inserted during
// pagination and seeks the (target, created_at DESC, id DESC) index instead
// of scanning past an offset.

func parseKeysetCursor(cursor string) (time.Time, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor format")
	}
	var id int64
	var ts int64
	_, err := fmt.Sscanf(parts[0], "%d", &id)
	if err != nil {
		return time.Time{}, 0, err
	}
	_, err = fmt.Sscanf(parts[1], "%d", &ts)
	if err != nil {
		return time.Time{}, 0, err
	}
	return time.Unix(ts, 0), id, nil
}

func formatKeysetCursor(t time.Time, id int64) string {
	return fmt.Sprintf("%d:%d", id, t.Unix())
}
