package utils

import (
	"strings"

	"github.com/google/uuid"
)

const suffixLength = 6

func GenerateID() string {
	return uuid.New().String()
}

// UniqueSuffix returns the first six hex characters of a random UUID.
func UniqueSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:suffixLength]
}
