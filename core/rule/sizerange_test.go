package rule

import "testing"

func TestParseSizeRange(t *testing.T) {
	const mib = int64(1024 * 1024)

	tests := []struct {
		name      string
		input     string
		wantMin   int64
		wantMax   int64
		wantError bool
	}{
		{name: "Empty means unrestricted", input: "", wantMin: 0, wantMax: 0},
		{name: "Zero means unrestricted", input: "0", wantMin: 0, wantMax: 0},
		{name: "Single number is a minimum", input: "10", wantMin: 10 * mib, wantMax: 0},
		{name: "Full range", input: "10-100", wantMin: 10 * mib, wantMax: 100 * mib},
		{name: "Range from zero", input: "0-100", wantMin: 0, wantMax: 100 * mib},
		{name: "Empty minimum defaults to zero", input: "-50", wantMin: 0, wantMax: 50 * mib},
		{name: "Fractional megabytes", input: "0.5-1.5", wantMin: mib / 2, wantMax: mib + mib/2},
		{name: "Whitespace tolerated", input: " 10 - 100 ", wantMin: 10 * mib, wantMax: 100 * mib},
		{name: "Min exceeds max", input: "100-10", wantError: true},
		{name: "Negative minimum", input: "-5-10", wantError: true},
		{name: "Zero maximum", input: "10-0", wantError: true},
		{name: "Not a number", input: "big", wantError: true},
		{name: "Garbage range", input: "10-lots", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax, err := ParseSizeRange(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("ParseSizeRange(%q) expected error, got (%d, %d)", tt.input, gotMin, gotMax)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSizeRange(%q) unexpected error: %v", tt.input, err)
			}
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("ParseSizeRange(%q) = (%d, %d), want (%d, %d)",
					tt.input, gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestMatchSize(t *testing.T) {
	const mib = int64(1024 * 1024)

	tests := []struct {
		name     string
		min, max int64
		size     int64
		want     bool
	}{
		{name: "No bounds", min: 0, max: 0, size: 123, want: true},
		{name: "Above minimum", min: 10 * mib, max: 0, size: 20 * mib, want: true},
		{name: "Below minimum", min: 10 * mib, max: 0, size: 5 * mib, want: false},
		{name: "Upper bound inclusive", min: 0, max: 50 * mib, size: 50 * mib, want: true},
		{name: "Above maximum", min: 0, max: 50 * mib, size: 50*mib + 1, want: false},
		{name: "Inside range", min: 10 * mib, max: 50 * mib, size: 30 * mib, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchSize(tt.min, tt.max, tt.size); got != tt.want {
				t.Errorf("matchSize(%d, %d, %d) = %v, want %v", tt.min, tt.max, tt.size, got, tt.want)
			}
		})
	}
}
