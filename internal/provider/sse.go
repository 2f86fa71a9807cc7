package provider

import "strings"

const sseDoneMarker = "[DONE]"

// ssePayload extracts the data payload from one SSE line. Blank lines,
// comments, and event-name lines are skipped.
func ssePayload(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return "", false
	}
	return payload, true
}
