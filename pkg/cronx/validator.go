package cronx

import (
	"fmt"
	"strings"
)

// Validate parses spec with StandardParser and returns a descriptive error
// if it is not a valid 6-field (seconds-included) cron expression or
// recognized descriptor.
func Validate(spec string) error {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return fmt.Errorf("empty spec string")
	}

	if !strings.HasPrefix(trimmed, "@") {
		fields := strings.Fields(trimmed)
		if len(fields) != 6 {
			return fmt.Errorf("cron 표현식 파싱 실패(spec=%q): expected exactly 6 fields, got %d", spec, len(fields))
		}
	}

	if _, err := StandardParser().Parse(trimmed); err != nil {
		return fmt.Errorf("cron 표현식 파싱 실패(spec=%q): %w", spec, err)
	}

	return nil
}
