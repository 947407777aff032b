//go:build !linux

package render

// ApplyWindowHints is a no-op on non-Linux platforms; EWMH states are an
// X11 convention.
func ApplyWindowHints(string, Hints) error {
	return nil
}

// DetectCompositor returns CompositorActive: Windows (DWM) and macOS
// always composite.
func DetectCompositor() CompositorStatus {
	return CompositorActive
}
