// Package constantstest provides constants payloads for tests.
package constantstest

// Payload returns a handshake payload that passes validation, shaped the
// way the host's JSON decodes.
func Payload() map[string]any {
	return map[string]any{
		"logEventTypes": map[string]any{
			"REQUEST_ALIVE":      float64(1),
			"HOST_RESOLVER_IMPL": float64(2),
			"URL_REQUEST_START":  float64(3),
		},
		"clientInfo":       map[string]any{"name": "Chromium", "version": "25.0", "os_type": "Linux"},
		"logEventPhase":    map[string]any{"PHASE_BEGIN": float64(1), "PHASE_END": float64(2), "PHASE_NONE": float64(0)},
		"logSourceType":    map[string]any{"NONE": float64(0), "URL_REQUEST": float64(1)},
		"logLevelType":     map[string]any{"LOG_ALL": float64(0), "LOG_BASIC": float64(2)},
		"loadFlag":         map[string]any{"NORMAL": float64(0)},
		"netError":         map[string]any{"NAME_NOT_RESOLVED": float64(-105)},
		"addressFamily":    map[string]any{"ADDRESS_FAMILY_IPV4": float64(1)},
		"timeTickOffset":   "1000",
		"logFormatVersion": float64(1),
	}
}

// Invalid returns a payload missing a required table.
func Invalid() map[string]any {
	p := Payload()
	delete(p, "logEventTypes")
	return p
}
