package model

import "testing"

func TestPageStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status PageStatus
		want   string
	}{
		{StatusNew, "New"},
		{StatusDownloading, "Downloading"},
		{StatusDownloaded, "Downloaded"},
		{StatusFailed, "Failed"},
		{PageStatus(99), "PageStatus(99)"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("PageStatus(%d).String() = %q, want %q", int(tt.status), got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	t.Run("accepts all defined codes", func(t *testing.T) {
		t.Parallel()

		for _, code := range []int{1, 2, 3, 4} {
			s, err := ParseStatus(code)
			if err != nil {
				t.Fatalf("ParseStatus(%d) returned error: %v", code, err)
			}
			if int(s) != code {
				t.Errorf("ParseStatus(%d) = %d", code, int(s))
			}
		}
	})

	t.Run("rejects unknown codes", func(t *testing.T) {
		t.Parallel()

		for _, code := range []int{0, 5, -1, 100} {
			if _, err := ParseStatus(code); err == nil {
				t.Errorf("ParseStatus(%d) should have failed", code)
			}
		}
	})
}

func TestParseStatusName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want PageStatus
	}{
		{"new", StatusNew},
		{"Downloading", StatusDownloading},
		{"downloaded", StatusDownloaded},
		{"FAILED", StatusFailed},
	}

	for _, tt := range tests {
		got, err := ParseStatusName(tt.name)
		if err != nil {
			t.Errorf("ParseStatusName(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatusName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := ParseStatusName("pending"); err == nil {
		t.Error("ParseStatusName should reject unknown names")
	}
}

func TestParseLegacyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want PageStatus
	}{
		{"NotDownloaded", StatusNew},
		{"Downloaded", StatusDownloaded},
		{"downloaded", StatusDownloaded},
		{"Failed", StatusFailed},
		{"failed", StatusFailed},
		{"", StatusNew},
		{"garbage", StatusNew},
	}

	for _, tt := range tests {
		if got := ParseLegacyStatus(tt.text); got != tt.want {
			t.Errorf("ParseLegacyStatus(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestPageStatusTerminal(t *testing.T) {
	t.Parallel()

	if StatusNew.Terminal() || StatusDownloading.Terminal() {
		t.Error("New and Downloading must not be terminal")
	}
	if !StatusDownloaded.Terminal() || !StatusFailed.Terminal() {
		t.Error("Downloaded and Failed must be terminal")
	}
}
