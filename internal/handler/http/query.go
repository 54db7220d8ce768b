package http

import (
	"net/http"
	"strconv"
	"time"
)

// dateRangeFromQuery parses optional from/to query parameters in YYYY-MM-DD
// form. Unparseable values are ignored.
func dateRangeFromQuery(r *http.Request) (from, to *time.Time) {
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			// Inclusive end of day.
			t = t.Add(24*time.Hour - time.Nanosecond)
			to = &t
		}
	}
	return from, to
}

// int64FromQuery parses an optional int64 query parameter.
func int64FromQuery(r *http.Request, key string) *int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
