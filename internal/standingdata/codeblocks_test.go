package standingdata

import "testing"

func TestFindCodeBlock(t *testing.T) {
	table := &CodeBlockTable{}
	table.Add(0x400000, 6, "United Kingdom", false)
	table.Add(0x43C000, 10, "United Kingdom", true) // military carve-out
	table.Add(0x7C0000, 5, "Australia", false)

	tests := []struct {
		icao        string
		wantCountry string
		wantMil     bool
		wantNil     bool
	}{
		{icao: "400001", wantCountry: "United Kingdom"},
		{icao: "43c123", wantCountry: "United Kingdom", wantMil: true},
		{icao: "7C6DB8", wantCountry: "Australia"},
		{icao: "A00001", wantNil: true},  // unallocated
		{icao: "zzzzzz", wantNil: true},  // not hex
		{icao: "1000000", wantNil: true}, // out of 24-bit range
		{icao: "", wantNil: true},
	}

	for _, tc := range tests {
		got := table.FindCodeBlock(tc.icao)
		if tc.wantNil {
			if got != nil {
				t.Errorf("FindCodeBlock(%q) = %+v, want nil", tc.icao, got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("FindCodeBlock(%q) = nil, want %q", tc.icao, tc.wantCountry)
		}
		if got.Country != tc.wantCountry || got.IsMilitary != tc.wantMil {
			t.Errorf("FindCodeBlock(%q) = %+v, want country %q military %v",
				tc.icao, got, tc.wantCountry, tc.wantMil)
		}
	}
}

func TestFindCodeBlockPrefersMostSpecific(t *testing.T) {
	table := &CodeBlockTable{}
	// Insert the broad block after the narrow one to prove ordering does
	// not depend on insertion order.
	table.Add(0x43C000, 10, "narrow", false)
	table.Add(0x400000, 6, "broad", false)

	if got := table.FindCodeBlock("43C001"); got == nil || got.Country != "narrow" {
		t.Errorf("FindCodeBlock(43C001) = %+v, want the narrow block", got)
	}
	if got := table.FindCodeBlock("400001"); got == nil || got.Country != "broad" {
		t.Errorf("FindCodeBlock(400001) = %+v, want the broad block", got)
	}
}
