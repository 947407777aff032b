package render

// CompositorStatus represents the detected compositor state.
type CompositorStatus int

const (
	// CompositorUnknown means we couldn't determine compositor status.
	CompositorUnknown CompositorStatus = iota
	// CompositorActive means a compositor is running (transparency will work).
	CompositorActive
	// CompositorInactive means no compositor detected (transparency may fail).
	CompositorInactive
)

// String returns a human-readable compositor status.
func (cs CompositorStatus) String() string {
	switch cs {
	case CompositorActive:
		return "active"
	case CompositorInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// CheckTransparencySupport returns a warning when cfg asks for a
// translucent background that the desktop may not composite, or an empty
// string when transparency should work.
func CheckTransparencySupport(cfg Config) string {
	if !cfg.Transparent() {
		return ""
	}
	return transparencyWarning(DetectCompositor())
}

func transparencyWarning(status CompositorStatus) string {
	switch status {
	case CompositorActive:
		return ""
	case CompositorInactive:
		return "no compositor detected; the translucent background will render opaque " +
			"without one (such as picom or a desktop environment's built-in compositor)"
	default:
		return "could not detect compositor status; the translucent background may render opaque"
	}
}
