package trace

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"nsntrace/internal/errors"
)

// DefaultAlias always resolves to the default context.
const DefaultAlias = "default"

// canonical normalizes a name so canonically equivalent spellings compare
// equal.
func canonical(name string) string {
	return norm.NFC.String(name)
}

// isNameRune reports whether r may appear in a context, module or flag name.
func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// checkName rejects names configuration text could not address.
func checkName(kind, name string) error {
	if name == "" {
		return errors.Invalidf("empty %s name", kind)
	}
	if i := strings.IndexFunc(name, func(r rune) bool { return !isNameRune(r) }); i >= 0 {
		bad, _ := utf8.DecodeRuneInString(name[i:])
		return errors.Invalidf("%s name %q: character %q not allowed", kind, name, bad)
	}
	if kind == "flag" && name == "all" {
		return errors.Invalidf("%s name %q is reserved", kind, name)
	}
	return nil
}

// binaryName is the default context name: the base name of the running
// executable, or "unknown".
func binaryName() string {
	exe, err := os.Executable()
	if err != nil {
		return "unknown"
	}
	name := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	name = strings.Map(func(r rune) rune {
		if isNameRune(r) {
			return r
		}
		return '_'
	}, name)
	if name == "" {
		return "unknown"
	}
	return canonical(name)
}
