package youtube

import "testing"

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		duration string
		want     int
	}{
		{"PT45S", 45},
		{"PT1M", 60},
		{"PT1M1S", 61},
		{"PT1M30S", 90},
		{"PT2H15M30S", 8130},
		{"PT1H", 3600},
		{"", 0},
		{"P1D", 0},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			if got := ParseDurationSeconds(tt.duration); got != tt.want {
				t.Errorf("ParseDurationSeconds(%q) = %d, want %d", tt.duration, got, tt.want)
			}
		})
	}
}
