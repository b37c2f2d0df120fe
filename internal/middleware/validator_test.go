package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJobID(t *testing.T) {
	cases := []struct {
		name  string
		id    string
		valid bool
	}{
		{"short id", "aabbccdd", true},
		{"full sha256", strings.Repeat("ab", 32), true},
		{"uppercase is normalized", "AABBCCDD", true},
		{"empty", "", false},
		{"too short", "aabbccd", false},
		{"between short and full", strings.Repeat("a", 16), false},
		{"non hex", "zzbbccdd", false},
		{"traversal attempt", "../../etc", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateJobID(tc.id)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateHash(t *testing.T) {
	assert.NoError(t, ValidateHash(strings.Repeat("0f", 32)))
	assert.Error(t, ValidateHash(""))
	assert.Error(t, ValidateHash("aabbccdd"), "short ids are not hashes")
	assert.Error(t, ValidateHash(strings.Repeat("g", 64)))
}

func TestValidateSubmitPath(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		valid bool
	}{
		{"plain file", "/drop/sample.exe", true},
		{"relative", "incoming/sample.bin", true},
		{"empty", "", false},
		{"traversal", "/drop/../../etc/passwd", false},
		{"etc root", "/etc", false},
		{"etc child", "/etc/shadow", false},
		{"proc", "/proc/self/environ", false},
		{"sys", "/sys/kernel", false},
		{"dev", "/dev/sda", false},
		{"boot", "/boot/vmlinuz", false},
		{"etcetera is fine", "/etcetera/sample.bin", true},
		{"command substitution", "/drop/$(rm -rf).bin", false},
		{"backtick", "/drop/`id`.bin", false},
		{"pipe", "/drop/a|b", false},
		{"semicolon", "/drop/a;b", false},
		{"ampersand", "/drop/a&b", false},
		{"newline", "/drop/a\nb", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSubmitPath(tc.path)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	assert.Equal(t, "ab", SanitizeString("a\x01\x02\x1fb"))
	assert.Equal(t, "a\tb", SanitizeString("a\tb"))
	assert.Equal(t, "a\nb", SanitizeString("a\nb"))
	assert.Equal(t, "", SanitizeString("\x00\x07"))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-5))
	assert.Equal(t, 1, ValidateLimit(1))
	assert.Equal(t, 100, ValidateLimit(100))
	assert.Equal(t, 100, ValidateLimit(5000))
}

func TestValidatePage(t *testing.T) {
	assert.Equal(t, 1, ValidatePage(0))
	assert.Equal(t, 1, ValidatePage(-1))
	assert.Equal(t, 7, ValidatePage(7))
}

func TestValidateDays(t *testing.T) {
	assert.Equal(t, 7, ValidateDays(0))
	assert.Equal(t, 30, ValidateDays(30))
	assert.Equal(t, 365, ValidateDays(366))
}
