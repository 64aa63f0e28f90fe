// Package controlid canonicalizes NIST control identifiers and finds control
// and KSI identifiers in free text.
package controlid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fedramphub/internal/util"
)

var reParenEnhancement = regexp.MustCompile(`^(\d+)\s*\(\s*(\d+)\s*\)$`)

// NormalizationError reports an identifier that does not have control shape.
type NormalizationError struct {
	Raw    string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize control id %q: %s", e.Raw, e.Reason)
}

// ID is a parsed control identifier. Enhancement is only meaningful when
// HasEnhancement is set.
type ID struct {
	Family         string
	Number         int
	Enhancement    int
	HasEnhancement bool
}

// String renders the canonical form: FAMILY-NN or FAMILY-NN(E).
func (id ID) String() string {
	base := fmt.Sprintf("%s-%02d", id.Family, id.Number)
	if !id.HasEnhancement {
		return base
	}
	return fmt.Sprintf("%s(%d)", base, id.Enhancement)
}

// Base drops the enhancement.
func (id ID) Base() ID {
	return ID{Family: id.Family, Number: id.Number}
}

// Parse accepts dot (at-2.2) and parenthesized (AT-02 (02)) enhancement
// forms in any case.
func Parse(raw string) (ID, error) {
	s := strings.ToUpper(util.Fold(raw))

	family, rest, ok := strings.Cut(s, "-")
	if !ok {
		return ID{}, &NormalizationError{Raw: raw, Reason: "missing '-' separator"}
	}
	family = strings.TrimSpace(family)
	if len(family) != 2 || !isUpperLetters(family) {
		return ID{}, &NormalizationError{Raw: raw, Reason: "family must be exactly two letters"}
	}

	rest = strings.TrimSpace(rest)
	base, enhancement := rest, ""
	hasEnhancement := false
	if b, e, found := strings.Cut(rest, "."); found {
		base, enhancement, hasEnhancement = b, e, true
	} else if m := reParenEnhancement.FindStringSubmatch(rest); m != nil {
		base, enhancement, hasEnhancement = m[1], m[2], true
	}

	number, ok := parseNumber(base)
	if !ok {
		return ID{}, &NormalizationError{Raw: raw, Reason: fmt.Sprintf("base number %q is not numeric", base)}
	}
	id := ID{Family: family, Number: number}
	if hasEnhancement {
		enh, ok := parseNumber(enhancement)
		if !ok {
			return ID{}, &NormalizationError{Raw: raw, Reason: fmt.Sprintf("enhancement %q is not numeric", enhancement)}
		}
		id.Enhancement = enh
		id.HasEnhancement = true
	}
	return id, nil
}

// Normalize returns the canonical string for raw. It is idempotent.
func Normalize(raw string) (string, error) {
	id, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Family returns everything before the first '-', or id itself.
func Family(id string) string {
	family, _, _ := strings.Cut(id, "-")
	return family
}

func isUpperLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
