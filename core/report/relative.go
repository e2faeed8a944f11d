package report

import (
	"fmt"
	"math"
	"time"
)

var relativeUnits = []struct {
	seconds float64
	name    string
}{
	{31536000, "years"},
	{2592000, "months"},
	{86400, "days"},
	{3600, "hours"},
	{60, "minutes"},
}

// RelativeTime renders how long before now t happened, e.g. "3 days ago".
// It uses the first unit whose quotient is strictly greater than 1 and
// floors it, so 90 minutes is "1 hours ago" and exactly one hour is
// "60 minutes ago". Times after now are reported as "0 seconds ago".
func RelativeTime(t, now time.Time) string {
	secs := math.Floor(now.Sub(t).Seconds())
	if secs < 0 {
		secs = 0
	}

	for _, u := range relativeUnits {
		if q := secs / u.seconds; q > 1 {
			return fmt.Sprintf("%d %s ago", int64(math.Floor(q)), u.name)
		}
	}
	return fmt.Sprintf("%d seconds ago", int64(secs))
}
