package util

import (
	"strings"
	"time"
)

// DateLayout é o formato aceito nos filtros por período.
const DateLayout = "2006-01-02"

// ParseDateRange valida o par início/fim no formato YYYY-MM-DD.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, time.Time{}, Invalid("start_date deve estar no formato YYYY-MM-DD")
	}
	to, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, time.Time{}, Invalid("end_date deve estar no formato YYYY-MM-DD")
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, Invalid("start_date não pode ser posterior a end_date")
	}
	return from, to, nil
}
