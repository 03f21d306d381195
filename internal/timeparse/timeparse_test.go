package timeparse

import (
	"testing"
	"time"
)

func TestNanosFormats(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int64
	}{
		{"iso8601 utc", "2024-01-15T10:30:00Z",
			time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixNano()},
		{"iso8601 millis", "2024-01-15T10:30:00.123Z",
			time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.UTC).UnixNano()},
		{"iso8601 nanos", "2024-01-15T10:30:00.123456789Z",
			time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC).UnixNano()},
		{"iso8601 positive offset", "2024-01-15T10:30:00+02:00",
			time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("", 2*3600)).UnixNano()},
		{"iso8601 negative offset", "2024-01-15T10:30:00-05:00",
			time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("", -5*3600)).UnixNano()},
		{"iso8601 no zone", "2024-01-15T10:30:00",
			time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixNano()},
		{"space separator", "2024-01-15 10:30:00",
			time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixNano()},
		{"date only", "2024-01-15",
			time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).UnixNano()},
		{"epoch seconds", "1705314600", 1705314600 * int64(time.Second)},
		{"epoch millis", "1705314600123", 1705314600123 * int64(time.Millisecond)},
		{"epoch nanos", "1705314600123456789", 1705314600123456789},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Nanos(tc.input)
			if err != nil {
				t.Fatalf("Nanos(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("Nanos(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestNanosInvalid(t *testing.T) {
	cases := []string{
		"",
		"not a time",
		"2024-13-45T99:99:99Z",
		"15.01.2024",
	}
	for _, input := range cases {
		if _, err := Nanos(input); err == nil {
			t.Errorf("Nanos(%q) succeeded, want error", input)
		}
	}
}

func TestNanosLayout(t *testing.T) {
	got, err := NanosLayout("15.01.2024 10:30", "02.01.2006 15:04")
	if err != nil {
		t.Fatalf("NanosLayout: %v", err)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixNano()
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}

	// The explicit layout only adds a format; built-ins still work.
	if _, err := NanosLayout("2024-01-15T10:30:00Z", "02.01.2006 15:04"); err != nil {
		t.Errorf("fallback to built-in layouts failed: %v", err)
	}
}

func TestNanosOrderingPreserved(t *testing.T) {
	inputs := []string{
		"2024-01-15T10:00:00Z",
		"2024-01-15T10:00:00.500Z",
		"2024-01-15T10:00:01Z",
		"2024-01-15T11:00:00+02:00", // 09:00 UTC
	}
	a, _ := Nanos(inputs[0])
	b, _ := Nanos(inputs[1])
	c, _ := Nanos(inputs[2])
	if !(a < b && b < c) {
		t.Errorf("ordering broken: %d %d %d", a, b, c)
	}

	// Offset form compares in absolute time.
	d, err := Nanos(inputs[3])
	if err != nil {
		t.Fatalf("Nanos: %v", err)
	}
	if d >= a {
		t.Errorf("11:00+02:00 should precede 10:00Z: %d vs %d", d, a)
	}
}
