package sitemapper

import "fmt"

// ValidationError reports malformed caller input, such as a homepage URL
// that is not an absolute HTTP(S) URL. It is returned before any network
// activity takes place.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.URL, e.Reason)
}
