package domain

import "time"

// TimestampLayout is the form the content repository uses for publication dates.
const TimestampLayout = "2006-01-02T15:04:05-0700"

// ParseTimestamp accepts the repository layout and RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
