package render

import "testing"

func TestCompositorStatusString(t *testing.T) {
	tests := []struct {
		status CompositorStatus
		want   string
	}{
		{CompositorActive, "active"},
		{CompositorInactive, "inactive"},
		{CompositorUnknown, "unknown"},
		{CompositorStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTransparencyWarning(t *testing.T) {
	if w := transparencyWarning(CompositorActive); w != "" {
		t.Errorf("active compositor warned: %q", w)
	}
	for _, s := range []CompositorStatus{CompositorInactive, CompositorUnknown} {
		if transparencyWarning(s) == "" {
			t.Errorf("%v compositor did not warn", s)
		}
	}
}

func TestCheckTransparencySupportOpaque(t *testing.T) {
	if w := CheckTransparencySupport(DefaultConfig()); w != "" {
		t.Errorf("opaque background warned: %q", w)
	}
}
