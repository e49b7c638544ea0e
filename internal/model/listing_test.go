package model

import "testing"

func TestParsePropertyType(t *testing.T) {
	tests := []struct {
		input  string
		want   PropertyType
		wantOK bool
	}{
		{"condo", PropertyTypeCondo, true},
		{"residential", PropertyTypeResidential, true},
		{"", "", false},
		{"Condo", "", false},
		{"apartment", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePropertyType(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePropertyType(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParsePropertyType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
