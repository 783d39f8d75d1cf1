package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// DefaultStartDate is used when a request names no start date
var DefaultStartDate = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

const dateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar day as
// midnight UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return startOfDay(t), true
	}
	return time.Time{}, false
}

// DayRange covers start through end inclusively: 00:00:00.000 UTC of the
// first day to 23:59:59.999 UTC of the last.
func DayRange(start, end time.Time) models.DateRange {
	return models.DateRange{
		Start: startOfDay(start),
		End:   startOfDay(end).Add(24*time.Hour - time.Millisecond),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ResolveDateRange turns request parameters into a range. A preset wins over
// explicit dates; otherwise missing dates default to 2022-01-01 and today.
// Explicit dates must satisfy start < end.
func ResolveDateRange(startDate, endDate, preset string, now time.Time) (models.DateRange, error) {
	var errs fieldErrors

	if preset != "" {
		rng, ok := PresetRange(preset, now)
		if !ok {
			errs.add("preset", "Invalid date preset")
			return models.DateRange{}, errs.err()
		}
		return rng, nil
	}

	start, end := DefaultStartDate, startOfDay(now.UTC())
	startOK, endOK := true, true

	if startDate != "" {
		if start, startOK = ParseDate(startDate); !startOK {
			errs.add("startDate", "Start date must be a valid ISO 8601 date")
		}
	}
	if endDate != "" {
		if end, endOK = ParseDate(endDate); !endOK {
			errs.add("endDate", "End date must be a valid ISO 8601 date")
		}
	}
	if startOK && endOK && !start.Before(end) {
		errs.add("startDate", "Start date must be before end date")
	}

	if err := errs.err(); err != nil {
		return models.DateRange{}, err
	}
	return DayRange(start, end), nil
}

// PresetRange returns the calendar range for a named preset relative to now
func PresetRange(preset string, now time.Time) (models.DateRange, bool) {
	today := startOfDay(now.UTC())

	switch preset {
	case "today":
		return DayRange(today, today), true
	case "yesterday":
		yesterday := today.AddDate(0, 0, -1)
		return DayRange(yesterday, yesterday), true
	case "last7days":
		return DayRange(today.AddDate(0, 0, -7), today), true
	case "last30days":
		return DayRange(today.AddDate(0, 0, -30), today), true
	case "thisMonth":
		return DayRange(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), today), true
	case "lastMonth":
		firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return DayRange(firstOfMonth.AddDate(0, -1, 0), firstOfMonth.AddDate(0, 0, -1)), true
	case "thisYear":
		return DayRange(time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC), today), true
	}
	return models.DateRange{}, false
}

// ParsePagination validates page and limit, applying defaultLimit when limit
// is absent.
func ParsePagination(pageParam, limitParam string, defaultLimit int) (int, int, error) {
	var errs fieldErrors
	page, limit := 1, defaultLimit

	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			errs.add("page", "Page must be a positive integer")
		} else {
			page = n
		}
	}
	if limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n < 1 || n > 100 {
			errs.add("limit", "Limit must be between 1 and 100")
		} else {
			limit = n
		}
	}

	return page, limit, errs.err()
}
