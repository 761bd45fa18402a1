package util

import "testing"

func TestShortVMName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name",
			input:    "web-01",
			expected: "web-01",
		},
		{
			name:     "full inventory path",
			input:    "/DC0/vm/prod/web-01",
			expected: "web-01",
		},
		{
			name:     "path with trailing slash",
			input:    "/DC0/vm/prod/web-01/",
			expected: "web-01",
		},
		{
			name:     "nested folders",
			input:    "/DC0/vm/prod/tier1/db/db-03",
			expected: "db-03",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortVMName(tt.input); got != tt.expected {
				t.Errorf("ShortVMName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
