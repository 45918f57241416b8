package protocol

import (
	"strconv"
	"time"
)

// FormatTimestamp renders t in UTC as hour and minute without zero padding,
// so 09:05 becomes "9:5". Peers rely on this exact shape.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	return strconv.Itoa(t.Hour()) + ":" + strconv.Itoa(t.Minute())
}
