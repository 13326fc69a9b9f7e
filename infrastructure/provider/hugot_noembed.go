//go:build !embed_model

package provider

import "fmt"

const hasEmbeddedModel = false

func extractEmbeddedModel(string) (string, error) {
	return "", fmt.Errorf("no embedded model compiled in")
}
