package validation

import (
	"strings"
	"testing"
)

func TestValidateResourceID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid id", "post-123", false},
		{"valid with underscore", "post_123", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 101), true},
		{"spaces", "post 123", true},
		{"path traversal", "../etc/passwd", true},
		{"slash", "post/123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResourceID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResourceID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePrincipalID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid id", "user-42", false},
		{"anonymous", "anonymous", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 101), true},
		{"invalid chars", "user@42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrincipalID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePrincipalID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMediaLocator(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		wantErr bool
	}{
		{"object key", "creator-1/post-1/track.mp3", false},
		{"playlist path", "creator-1/post-1/master.m3u8", false},
		{"empty", "", true},
		{"path traversal", "creator-1/../secrets", true},
		{"absolute path", "/etc/passwd", true},
		{"too long", strings.Repeat("a", 1025), true},
		{"invalid chars", "creator-1/post 1/track.mp3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMediaLocator(tt.locator)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMediaLocator() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
