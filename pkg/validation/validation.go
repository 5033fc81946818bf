package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// ResourceIDRegex validates resource ID format
	ResourceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// PrincipalIDRegex validates principal ID format
	PrincipalIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// MediaLocatorRegex validates storage object keys and playlist paths.
	// Path traversal sequences are the thing being kept out.
	MediaLocatorRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-./]+$`)
)

// ValidateResourceID validates a resource identifier
func ValidateResourceID(id string) error {
	if id == "" {
		return fmt.Errorf("resource ID is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("resource ID is too long (max 100 characters)")
	}
	if !ResourceIDRegex.MatchString(id) {
		return fmt.Errorf("invalid resource ID format")
	}
	return nil
}

// ValidatePrincipalID validates a principal identifier
func ValidatePrincipalID(id string) error {
	if id == "" {
		return fmt.Errorf("principal ID is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("principal ID is too long (max 100 characters)")
	}
	if !PrincipalIDRegex.MatchString(id) {
		return fmt.Errorf("invalid principal ID format")
	}
	return nil
}

// ValidateMediaLocator validates a media object locator
func ValidateMediaLocator(locator string) error {
	if locator == "" {
		return fmt.Errorf("media locator is required")
	}
	if len(locator) > 1024 {
		return fmt.Errorf("media locator is too long (max 1024 characters)")
	}
	if strings.Contains(locator, "..") {
		return fmt.Errorf("media locator must not contain path traversal")
	}
	if strings.HasPrefix(locator, "/") {
		return fmt.Errorf("media locator must be a relative key")
	}
	if !MediaLocatorRegex.MatchString(locator) {
		return fmt.Errorf("invalid media locator format")
	}
	return nil
}
