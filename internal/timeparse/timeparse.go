// Package timeparse parses event timestamps into nanoseconds since the
// Unix epoch, fast-pathing the common ISO 8601 shapes byte by byte.
package timeparse

import (
	"strconv"
	"time"
)

// ErrInvalidTimestamp indicates a timestamp parsing error.
var ErrInvalidTimestamp = &Error{"invalid timestamp format"}

// Error represents a timestamp parsing error.
type Error struct {
	msg string
}

func (e *Error) Error() string {
	return e.msg
}

// Common timestamp layouts ordered by likelihood.
var commonLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00", // ISO 8601 with millis
	"2006-01-02T15:04:05Z07:00",     // ISO 8601
	"2006-01-02T15:04:05.000Z",      // ISO 8601 UTC with millis
	"2006-01-02T15:04:05Z",          // ISO 8601 UTC
	"2006-01-02T15:04:05",           // ISO 8601 local
	"2006-01-02 15:04:05.000",       // Space separator with millis
	"2006-01-02 15:04:05",           // Space separator
	"2006-01-02",                    // Date only
	"02/01/2006 15:04:05",           // DD/MM/YYYY
	"2006/01/02 15:04:05",           // YYYY/MM/DD
	time.RFC3339,
	time.RFC3339Nano,
}

// Nanos parses a timestamp string to nanoseconds since epoch.
// ISO 8601 inputs take a byte-inspection fast path; bare integers are
// treated as epoch seconds, milliseconds or nanoseconds by magnitude.
func Nanos(s string) (int64, error) {
	if len(s) == 0 {
		return 0, ErrInvalidTimestamp
	}

	b := []byte(s)
	if len(b) >= 10 && b[4] == '-' && b[7] == '-' {
		if ns, err := parseISO8601Fast(b); err == nil {
			return ns, nil
		}
	}

	if isInteger(b) {
		return parseEpoch(s)
	}

	for _, layout := range commonLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixNano(), nil
		}
	}

	return 0, ErrInvalidTimestamp
}

// NanosLayout parses using an explicit Go layout, falling back to Nanos.
func NanosLayout(s, layout string) (int64, error) {
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixNano(), nil
		}
	}
	return Nanos(s)
}

// parseEpoch interprets a bare integer by digit count:
// up to 10 digits are epoch seconds, up to 13 milliseconds, else nanoseconds.
func parseEpoch(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidTimestamp
	}
	digits := len(s)
	if s[0] == '-' {
		digits--
	}
	switch {
	case digits <= 10:
		return v * int64(time.Second), nil
	case digits <= 13:
		return v * int64(time.Millisecond), nil
	default:
		return v, nil
	}
}

// parseISO8601Fast parses ISO 8601 format using direct byte arithmetic.
func parseISO8601Fast(b []byte) (int64, error) {
	if len(b) < 10 {
		return 0, ErrInvalidTimestamp
	}

	year := parseInt4(b[0:4])
	month := parseInt2(b[5:7])
	day := parseInt2(b[8:10])

	if year < 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, ErrInvalidTimestamp
	}

	var hour, minute, second, nsec int
	loc := time.UTC

	if len(b) > 10 && (b[10] == 'T' || b[10] == ' ') {
		if len(b) < 19 {
			return 0, ErrInvalidTimestamp
		}
		hour = parseInt2(b[11:13])
		minute = parseInt2(b[14:16])
		second = parseInt2(b[17:19])
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 60 {
			return 0, ErrInvalidTimestamp
		}

		if len(b) > 19 && b[19] == '.' {
			fracEnd := 20
			for fracEnd < len(b) && b[fracEnd] >= '0' && b[fracEnd] <= '9' {
				fracEnd++
			}
			nsec = parseFraction(b[20:fracEnd])
		}

		for i := 19; i < len(b); i++ {
			if b[i] == 'Z' {
				loc = time.UTC
				break
			}
			if b[i] == '+' || b[i] == '-' {
				if i+5 <= len(b) {
					offsetHours := parseInt2(b[i+1 : i+3])
					offsetMins := 0
					if i+6 <= len(b) && b[i+3] == ':' {
						offsetMins = parseInt2(b[i+4 : i+6])
					} else if i+5 <= len(b) {
						offsetMins = parseInt2(b[i+3 : i+5])
					}
					offset := offsetHours*3600 + offsetMins*60
					if b[i] == '-' {
						offset = -offset
					}
					loc = time.FixedZone("", offset)
				}
				break
			}
		}
	} else if len(b) > 10 {
		return 0, ErrInvalidTimestamp
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, nsec, loc)
	return t.UnixNano(), nil
}

// parseInt4 parses a 4-byte integer without allocation.
func parseInt4(b []byte) int {
	if len(b) != 4 {
		return -1
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return -1
		}
	}
	return int(b[0]-'0')*1000 + int(b[1]-'0')*100 + int(b[2]-'0')*10 + int(b[3]-'0')
}

// parseInt2 parses a 2-byte integer without allocation.
func parseInt2(b []byte) int {
	if len(b) != 2 {
		return -1
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return -1
		}
	}
	return int(b[0]-'0')*10 + int(b[1]-'0')
}

// parseFraction parses fractional seconds to nanoseconds.
func parseFraction(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	var result int64
	multiplier := int64(100000000)
	for i := 0; i < len(b) && i < 9; i++ {
		result += int64(b[i]-'0') * multiplier
		multiplier /= 10
	}
	return int(result)
}

// isInteger reports whether b holds an optionally signed integer.
func isInteger(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for i, c := range b {
		if c >= '0' && c <= '9' {
			continue
		}
		if c == '-' && i == 0 && len(b) > 1 {
			continue
		}
		return false
	}
	return true
}
