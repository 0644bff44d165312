package ids

import "github.com/segmentio/ksuid"

// New returns a sortable identifier made of a timestamp and a random payload.
func New() string {
	return ksuid.New().String()
}
