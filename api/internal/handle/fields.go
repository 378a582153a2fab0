package handle

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Clients send counts and ids either as JSON numbers or as numeric strings.

// intField accepts 3, 3.0 or "3". Fractions and other types are rejected.
func intField(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// textField returns strings as-is and integral numbers as their decimal text.
func textField(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if n, ok := intField(raw); ok {
		return strconv.Itoa(n)
	}
	return ""
}
