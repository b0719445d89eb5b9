package entitlement

import "time"

// PeriodOf returns the usage bucket key for t. Both the read and write paths
// derive the key through this function, always in UTC, so a write can never
// land in a different month than the subsequent read regardless of server
// time zone.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
