package util

import "testing"

func TestParseSize(t *testing.T) {
	const def = int64(1 << 20)
	tests := []struct {
		input string
		want  int64
	}{
		{"1MB", 1 << 20},
		{"512KB", 512 << 10},
		{"2GB", 2 << 30},
		{"1024", 1024},
		{"100B", 100},
		{" 10 mb ", 10 << 20},
		{"", def},
		{"lots", def},
		{"-5MB", def},
		{"0", def},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseSize(tc.input, def); got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}
