package framework

import (
	"errors"
	"strings"
)

// reformatError condenses the multi-line failure text that testify assertions produce, so that
// the test log shows the message and the values without the call trace.
func reformatError(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "Error Trace:") {
		return err
	}
	var kept []string
	skipping := false
	for _, line := range strings.Split(msg, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Error Trace:"), strings.HasPrefix(trimmed, "Test:"):
			skipping = true
			continue
		case strings.HasPrefix(trimmed, "Error:"), strings.HasPrefix(trimmed, "Messages:"):
			skipping = false
			trimmed = strings.TrimSpace(trimmed[strings.Index(trimmed, ":")+1:])
		}
		if skipping || trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return err
	}
	return errors.New(strings.Join(kept, "\n"))
}
