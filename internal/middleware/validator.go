package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var (
	jobIDPattern = regexp.MustCompile(`^[a-f0-9]{8}$|^[a-f0-9]{64}$`)
	hashPattern  = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// ValidateJobID accepts a short job id (first 8 hex chars of the
// content hash) or a full sha256.
func ValidateJobID(id string) error {
	if id == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if !jobIDPattern.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("invalid job id format (8 or 64 hex chars)")
	}
	return nil
}

// ValidateHash checks a full sha256 hex digest.
func ValidateHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("hash cannot be empty")
	}
	if !hashPattern.MatchString(strings.ToLower(hash)) {
		return fmt.Errorf("invalid sha256 format")
	}
	return nil
}

// ValidateSubmitPath validates file paths submitted for analysis
func ValidateSubmitPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleaned := filepath.Clean(path)

	// Block path traversal attempts
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("path traversal detected")
	}

	// Block system directories; samples never live there
	blocked := []string{"/etc", "/proc", "/sys", "/dev", "/boot"}
	for _, b := range blocked {
		if cleaned == b || strings.HasPrefix(cleaned, b+"/") {
			return fmt.Errorf("access to %s is not allowed", b)
		}
	}

	// Block shell metacharacters
	dangerous := []string{"$(", "`", "&", "|", ";", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(path, d) {
			return fmt.Errorf("invalid characters in path")
		}
	}

	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates a page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
