package domain

import "fmt"

// IntervalRequest single requested candle granularity with an optional
// fetch-count override. Limit 0 means "no override, use the report default".
type IntervalRequest struct {
	Name  string
	Limit int
}

// HasLimit reports whether an explicit limit override was given.
func (r IntervalRequest) HasLimit() bool {
	return r.Limit > 0
}

// Display returns the request as the user wrote it: "1h" or "1h:200".
func (r IntervalRequest) Display() string {
	if r.HasLimit() {
		return fmt.Sprintf("%s:%d", r.Name, r.Limit)
	}
	return r.Name
}
