package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string for entities and
// uploaded image references.
func GenerateID() string {
	return uuid.New().String()
}
