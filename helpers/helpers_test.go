package helpers

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{8192, "8.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}

	for _, tt := range tests {
		got := FormatBytes(tt.bytes)
		if got != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0s"},
		{500 * time.Nanosecond, "500ns"},
		{42 * time.Microsecond, "42µs"},
		{123456 * time.Microsecond, "123.456ms"},
		{1500 * time.Millisecond, "1.5s"},
		{45 * time.Second, "45s"},
		{3*time.Minute + 30*time.Second, "3m 30s"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{-45 * time.Second, "-45s"},
	}

	for _, tt := range tests {
		got := FormatDuration(tt.d)
		if got != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.expected)
		}
	}
}

func TestFormatRunTime(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0:00:00.000000"},
		{time.Minute, "0:01:00.000000"},
		{61*time.Second + 500*time.Millisecond, "0:01:01.500000"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03.000000"},
		{25*time.Hour + 59*time.Minute + 59*time.Second, "25:59:59.000000"},
		{1234567 * time.Microsecond, "0:00:01.234567"},
	}

	for _, tt := range tests {
		got := FormatRunTime(tt.d)
		if got != tt.expected {
			t.Errorf("FormatRunTime(%v) = %q, want %q", tt.d, got, tt.expected)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n        int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234567, "-1,234,567"},
	}

	for _, tt := range tests {
		got := FormatNumber(tt.n)
		if got != tt.expected {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.expected)
		}
	}
}

func TestFormatFloatComma(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "0.00"},
		{1.5, "1.50"},
		{999.995, "1,000.00"},
		{1234.5, "1,234.50"},
		{1048576.128, "1,048,576.13"},
		{-42.125, "-42.13"},
		{0.004, "0.00"},
	}

	for _, tt := range tests {
		got := FormatFloatComma(tt.value)
		if got != tt.expected {
			t.Errorf("FormatFloatComma(%v) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		count    int64
		duration time.Duration
		expected string
	}{
		{100, time.Second, "100.00/s"},
		{5000, time.Second, "5.00K/s"},
		{2000000, time.Second, "2.00M/s"},
		{100, 0, "0/s"},
	}

	for _, tt := range tests {
		got := FormatRate(tt.count, tt.duration)
		if got != tt.expected {
			t.Errorf("FormatRate(%d, %v) = %q, want %q", tt.count, tt.duration, got, tt.expected)
		}
	}
}

func TestMinMax(t *testing.T) {
	if got := Min(3, 7); got != 3 {
		t.Errorf("Min(3, 7) = %d, want 3", got)
	}
	if got := Min(-1, 1); got != -1 {
		t.Errorf("Min(-1, 1) = %d, want -1", got)
	}
	if got := Max(3, 7); got != 7 {
		t.Errorf("Max(3, 7) = %d, want 7", got)
	}
	if got := Max(-1, 1); got != 1 {
		t.Errorf("Max(-1, 1) = %d, want 1", got)
	}
}
