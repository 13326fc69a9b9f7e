//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// Pure-Go inference backend, used unless built with the ORT tag.
func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
