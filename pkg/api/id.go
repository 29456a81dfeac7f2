package api

import "github.com/google/uuid"

// NewRequestID generates a new submission identifier (a random UUID).
func NewRequestID() string {
	return uuid.NewString()
}

// ValidateRequestID checks whether id is a syntactically valid submission
// identifier in canonical 36-character UUID form.
func ValidateRequestID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
