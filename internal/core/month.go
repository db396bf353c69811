package core

import (
	"fmt"
	"time"
)

// YearMonth identifies a summary period. Month is 1-12.
type YearMonth struct {
	Year  int
	Month int
}

func CurrentYearMonth(now time.Time) YearMonth {
	return YearMonth{Year: now.Year(), Month: int(now.Month())}
}

func (ym YearMonth) Validate() error {
	if ym.Month < 1 || ym.Month > 12 {
		return fmt.Errorf("invalid month %d: must be 1-12", ym.Month)
	}
	if ym.Year < 1 {
		return fmt.Errorf("invalid year %d", ym.Year)
	}
	return nil
}

// Prev returns the preceding month, wrapping January back to December
// of the previous year.
func (ym YearMonth) Prev() YearMonth {
	if ym.Month == 1 {
		return YearMonth{Year: ym.Year - 1, Month: 12}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Next returns the following month, wrapping December to January of
// the next year.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}
