package api

import "testing"

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	if !ValidateRequestID(id) {
		t.Errorf("NewRequestID() = %q, want valid request ID", id)
	}
	if other := NewRequestID(); other == id {
		t.Errorf("NewRequestID() returned %q twice", id)
	}
}

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "ef81a976-4dee-4a91-b5ac-7ff0da3c2913", true},
		{"valid upper case", "EF81A976-4DEE-4A91-B5AC-7FF0DA3C2913", true},
		{"invalid word", "invalid_id", false},
		{"urn form", "urn:uuid:ef81a976-4dee-4a91-b5ac-7ff0da3c2913", false},
		{"braced", "{ef81a976-4dee-4a91-b5ac-7ff0da3c2913}", false},
		{"no dashes", "ef81a9764dee4a91b5ac7ff0da3c2913", false},
		{"bad hex", "zf81a976-4dee-4a91-b5ac-7ff0da3c2913", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateRequestID(tt.id); got != tt.want {
				t.Errorf("ValidateRequestID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
