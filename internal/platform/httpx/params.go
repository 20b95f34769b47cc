package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// PathID parses a chi URL parameter as an int64 identifier.
func PathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// ActorID pulls the acting user from the X-Actor-ID header. Zero means the
// caller did not identify; authentication lives upstream of this service.
func ActorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

// ParseDateQuery reads a YYYY-MM-DD query value as the end of that day, so an
// as-of report includes everything posted during the requested date. Empty
// input yields nil.
func ParseDateQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	eod := parsed.Add(24*time.Hour - time.Nanosecond)
	return &eod, nil
}
