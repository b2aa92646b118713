// Package dex holds the reference data behind the damage engine: the type
// chart, the item and ability table, and name resolution for species and
// moves backed by storage.
package dex

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ToID normalises a display name to the lookup key used by every data
// source: accents stripped, lower case, letters and digits only.
// "Flabébé" becomes "flabebe" and "Urshifu-Rapid-Strike" becomes
// "urshifurapidstrike".
func ToID(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TypeName returns the canonical spelling of a type name, or "" when it is
// not one of the 18 types. Stellar is accepted as a tera type.
func TypeName(name string) string {
	t := cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := typeIndex[t]; ok || t == "Stellar" {
		return t
	}
	return ""
}

// Types lists the 18 types in chart order.
func Types() []string {
	return append([]string(nil), typeOrder...)
}
