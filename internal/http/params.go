package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// monthParams is a year and month picked from query parameters.
type monthParams struct {
	Year  int
	Month int
}

// parseMonthParams reads year and month from the query string, the
// current month standing in for whatever is absent. Values that do not
// parse or fall outside range are errors, not silently corrected.
func parseMonthParams(r *http.Request) (monthParams, error) {
	now := time.Now()
	params := monthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 3000 {
			return monthParams{}, errors.New("year must be a number between 1970 and 3000")
		}
		params.Year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return monthParams{}, errors.New("month must be a number between 1 and 12")
		}
		params.Month = m
	}

	return params, nil
}

// monthParamsOrFail parses month params and writes the 400 itself.
func monthParamsOrFail(w http.ResponseWriter, r *http.Request) (monthParams, bool) {
	params, err := parseMonthParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return monthParams{}, false
	}
	return params, true
}

// pathID returns the {id} path segment, trimmed.
func pathID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}
