package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/passgen"
)

// Length range offered by the generate command.
const (
	minGenerateLength = 8
	maxGenerateLength = 32
)

// parseGenerateArgs reads "[length] [classes]" where classes is any
// combination of u(ppercase), l(owercase), n(umbers) and s(ymbols).
func parseGenerateArgs(args []string) (passgen.Options, error) {
	o := passgen.DefaultOptions()

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return o, fmt.Errorf("%w: length must be a number", common.ErrorValidation)
		}
		if n < minGenerateLength || n > maxGenerateLength {
			return o, fmt.Errorf("%w: length must be between %d and %d", common.ErrorValidation, minGenerateLength, maxGenerateLength)
		}
		o.Length = n
	}

	if len(args) > 1 {
		classes := strings.ToLower(args[1])
		for _, r := range classes {
			if !strings.ContainsRune("ulns", r) {
				return o, fmt.Errorf("%w: unknown character class %q", common.ErrorValidation, r)
			}
		}
		o.UseUppercase = strings.Contains(classes, "u")
		o.UseLowercase = strings.Contains(classes, "l")
		o.UseNumbers = strings.Contains(classes, "n")
		o.UseSymbols = strings.Contains(classes, "s")
	}

	return o, nil
}

// Generate prints a random password. It works without a session.
func (a *App) Generate(ctx context.Context, args []string) error {
	o, err := parseGenerateArgs(args)
	if err != nil {
		return err
	}
	pw, err := passgen.Generate(o)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}
