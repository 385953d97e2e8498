package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateRandomString generates a random string of specified length
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// IsValidAttendanceStatus checks if an attendance status is valid
func IsValidAttendanceStatus(status string) bool {
	validStatuses := []string{"present", "absent", "late", "excused"}
	for _, validStatus := range validStatuses {
		if status == validStatus {
			return true
		}
	}
	return false
}

// IsValidAssignmentType checks if an assignment type is valid
func IsValidAssignmentType(assignmentType string) bool {
	validTypes := []string{"homework", "project", "quiz", "test", "exam"}
	for _, validType := range validTypes {
		if assignmentType == validType {
			return true
		}
	}
	return false
}

// IsValidGender checks if a gender code is valid
func IsValidGender(gender string) bool {
	validGenders := []string{"M", "F", "O"}
	for _, validGender := range validGenders {
		if gender == validGender {
			return true
		}
	}
	return false
}

// Round2 rounds a float to two decimal places
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	// Remove null bytes and control characters
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
