// Package passgen generates random passwords from a configurable set of
// character classes.
//
// Every character is drawn independently and uniformly from the pool of
// enabled classes, so a short password is not guaranteed to contain a
// character from each enabled class. Callers that need that property must
// check and regenerate.
package passgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
)

const (
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Numbers   = "0123456789"
	Symbols   = "!@#$%^&*()_-+=[]{}|:;<>,.?/"
)

// DefaultLength matches the initial value of the length slider in the web UI.
const DefaultLength = 12

// Options selects the length and character classes of a generated password.
type Options struct {
	Length       int
	UseUppercase bool
	UseLowercase bool
	UseNumbers   bool
	UseSymbols   bool
}

// DefaultOptions enables every class at DefaultLength.
func DefaultOptions() Options {
	return Options{
		Length:       DefaultLength,
		UseUppercase: true,
		UseLowercase: true,
		UseNumbers:   true,
		UseSymbols:   true,
	}
}

// Pool returns the concatenated alphabets of the enabled classes.
func (o Options) Pool() string {
	var sb strings.Builder
	if o.UseUppercase {
		sb.WriteString(Uppercase)
	}
	if o.UseLowercase {
		sb.WriteString(Lowercase)
	}
	if o.UseNumbers {
		sb.WriteString(Numbers)
	}
	if o.UseSymbols {
		sb.WriteString(Symbols)
	}
	return sb.String()
}

// randReader is a test seam for crypto/rand.Reader.
var randReader io.Reader = rand.Reader

// Generate returns a password of exactly o.Length characters.
func Generate(o Options) (string, error) {
	if o.Length < 1 {
		return "", fmt.Errorf("%w: length must be at least 1", common.ErrorValidation)
	}
	pool := o.Pool()
	if pool == "" {
		return "", fmt.Errorf("%w: select at least one character type", common.ErrorValidation)
	}

	max := big.NewInt(int64(len(pool)))
	out := make([]byte, o.Length)
	for i := range out {
		n, err := rand.Int(randReader, max)
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		out[i] = pool[n.Int64()]
	}
	return string(out), nil
}
