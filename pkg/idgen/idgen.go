// Package idgen generates short, shareable list codes backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the character set for list codes. Uppercase plus digits keeps
// codes easy to read aloud and type on a phone.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the number of characters in a list code.
const CodeLength = 6

// NewListCode returns a new random list code, e.g. "K7Q2ZD".
func NewListCode() (string, error) {
	code, err := nanoid.Generate(Alphabet, CodeLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return code, nil
}
