package utils

import (
	"fmt"
	"strings"
	"time"
)

// MaxNameLength bounds display names for categories and habits
const MaxNameLength = 120

// ValidateName trims and validates a display name, returning the cleaned
// value.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("name is too long (%d characters, max %d)", len(name), MaxNameLength)
	}
	return name, nil
}

// ValidateReminderTime checks a reminder time in HH:MM 24-hour format.
func ValidateReminderTime(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("invalid reminder time '%s': expected HH:MM (e.g., 07:30)", value)
	}
	return nil
}

// ParseDateFlag parses a date string in ISO format (YYYY-MM-DD).
// Returns nil for empty strings.
// Returns error for invalid formats or dates.
func ParseDateFlag(dateStr string) (*time.Time, error) {
	// Empty string means no date
	if dateStr == "" {
		return nil, nil
	}

	// Parse ISO date format (YYYY-MM-DD) in local timezone
	parsedDate, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date format '%s': expected YYYY-MM-DD (e.g., 2025-01-31)", dateStr)
	}

	return &parsedDate, nil
}

// PromptYesNo asks a yes/no question on stdin and reports the answer.
func PromptYesNo(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	var answer string
	_, _ = fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
