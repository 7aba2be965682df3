package db

import "time"

// timeLayout is the on-disk representation for every timestamp column:
// RFC3339 in UTC, e.g. "2024-03-07T15:04:05Z".
const timeLayout = time.RFC3339

// TimeFormat renders t as an RFC3339 UTC string for storage.
func TimeFormat(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// TimeParse parses a stored RFC3339 string back into a time.Time.
// An empty string parses to the zero time with no error, since nullable
// timestamp columns (cooldown_until, leased_until, ...) are stored as "".
func TimeParse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}
