package market

import "testing"

func TestFormatUSD_AdaptivePrecision(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.00004213, "0.00004213"},
		{0.00742, "0.00742"},
		{0.42, "0.42"},
		{3.1234567, "3.1234"},
		{64.5, "64.5"},
		{64123.55, "64,123.55"},
		{1256821780000, "1,256,821,780,000"},
	}
	for _, tc := range cases {
		if got := FormatUSD(tc.in); got != tc.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(2.414); got != "2.41" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(-12.3456); got != "-12.34" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestChangeColor(t *testing.T) {
	if ChangeColor(2.5) != 0x10CC84 {
		t.Error("gain should be green")
	}
	if ChangeColor(-3.1) != 0xF6465D {
		t.Error("loss should be red")
	}
	if ChangeColor(0.2) != 0xF0CCD4 {
		t.Error("flat should be neutral")
	}
}
