package timezone

import (
	"reflect"
	"testing"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name          string
		pref          Preference
		observed      string
		wantPref      Preference
		wantDirective Directive
	}{
		{
			name:          "first visit",
			pref:          Preference{},
			observed:      "Europe/Paris",
			wantPref:      Preference{Detected: "Europe/Paris"},
			wantDirective: PromptFirstTime{Suggested: "Europe/Paris"},
		},
		{
			name:          "repeat visit without selection keeps prompting",
			pref:          Preference{Detected: "Europe/Paris"},
			observed:      "Europe/Paris",
			wantPref:      Preference{Detected: "Europe/Paris"},
			wantDirective: PromptFirstTime{Suggested: "Europe/Paris"},
		},
		{
			name:          "agreement",
			pref:          Preference{Detected: "Europe/Paris", Selected: "Europe/Paris"},
			observed:      "Europe/Paris",
			wantPref:      Preference{Detected: "Europe/Paris", Selected: "Europe/Paris"},
			wantDirective: None{},
		},
		{
			name:          "agreement clears stale confirmed flag",
			pref:          Preference{Detected: "America/New_York", Selected: "Europe/Paris", ConfirmedMismatch: true},
			observed:      "Europe/Paris",
			wantPref:      Preference{Detected: "Europe/Paris", Selected: "Europe/Paris"},
			wantDirective: None{},
		},
		{
			name:          "unconfirmed divergence prompts",
			pref:          Preference{Detected: "Europe/Paris", Selected: "Europe/Paris"},
			observed:      "America/New_York",
			wantPref:      Preference{Detected: "America/New_York", Selected: "Europe/Paris"},
			wantDirective: PromptMismatch{Detected: "America/New_York", Selected: "Europe/Paris"},
		},
		{
			name:          "confirmed divergence stays quiet",
			pref:          Preference{Detected: "America/New_York", Selected: "Europe/Paris", ConfirmedMismatch: true},
			observed:      "America/New_York",
			wantPref:      Preference{Detected: "America/New_York", Selected: "Europe/Paris", ConfirmedMismatch: true},
			wantDirective: None{},
		},
		{
			name:          "confirmed divergence, new third zone prompts again",
			pref:          Preference{Detected: "America/New_York", Selected: "Europe/Paris", ConfirmedMismatch: true},
			observed:      "Asia/Tokyo",
			wantPref:      Preference{Detected: "Asia/Tokyo", Selected: "Europe/Paris", ConfirmedMismatch: true},
			wantDirective: None{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, directive := Reconcile(tt.pref, tt.observed)
			if !reflect.DeepEqual(got, tt.wantPref) {
				t.Errorf("Reconcile() pref = %+v, want %+v", got, tt.wantPref)
			}
			if !reflect.DeepEqual(directive, tt.wantDirective) {
				t.Errorf("Reconcile() directive = %+v, want %+v", directive, tt.wantDirective)
			}
		})
	}
}

func TestAcceptDetected(t *testing.T) {
	pref := Preference{Detected: "America/New_York", Selected: "Europe/Paris"}
	got := AcceptDetected(pref)
	if got.Selected != "America/New_York" {
		t.Errorf("AcceptDetected() Selected = %q, want %q", got.Selected, "America/New_York")
	}
	if got.ConfirmedMismatch {
		t.Error("AcceptDetected() left ConfirmedMismatch set")
	}
}

func TestChooseSelected(t *testing.T) {
	tests := []struct {
		name          string
		pref          Preference
		chosen        string
		wantConfirmed bool
	}{
		{
			name:          "choice diverging from detected is confirmed",
			pref:          Preference{Detected: "America/New_York"},
			chosen:        "Europe/Paris",
			wantConfirmed: true,
		},
		{
			name:          "choice matching detected",
			pref:          Preference{Detected: "America/New_York", Selected: "Europe/Paris", ConfirmedMismatch: true},
			chosen:        "America/New_York",
			wantConfirmed: false,
		},
		{
			name:          "re-asserting the divergent selection keeps it confirmed",
			pref:          Preference{Detected: "America/New_York", Selected: "Europe/Paris", ConfirmedMismatch: true},
			chosen:        "Europe/Paris",
			wantConfirmed: true,
		},
		{
			name:          "no detected zone yet",
			pref:          Preference{},
			chosen:        "Europe/Paris",
			wantConfirmed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseSelected(tt.pref, tt.chosen)
			if got.Selected != tt.chosen {
				t.Errorf("ChooseSelected() Selected = %q, want %q", got.Selected, tt.chosen)
			}
			if got.ConfirmedMismatch != tt.wantConfirmed {
				t.Errorf("ChooseSelected() ConfirmedMismatch = %v, want %v", got.ConfirmedMismatch, tt.wantConfirmed)
			}
		})
	}
}

func TestDisplayZone(t *testing.T) {
	tests := []struct {
		name string
		pref Preference
		want string
	}{
		{name: "selected wins", pref: Preference{Detected: "Asia/Tokyo", Selected: "Europe/Paris"}, want: "Europe/Paris"},
		{name: "detected when nothing selected", pref: Preference{Detected: "Asia/Tokyo"}, want: "Asia/Tokyo"},
		{name: "fallback when empty", pref: Preference{}, want: "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayZone(tt.pref, "UTC"); got != tt.want {
				t.Errorf("DisplayZone() = %q, want %q", got, tt.want)
			}
		})
	}
}
