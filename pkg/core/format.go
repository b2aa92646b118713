package core

import (
	"fmt"
	"sort"
	"strings"
)

// Format describes one VGC regulation and where its data is published.
type Format struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	SmogonID     string   `json:"smogonId"`
	Months       []string `json:"months"`
	Elos         []int    `json:"elos"`
	TeamIDPrefix string   `json:"teamIdPrefix"`
	Current      bool     `json:"current"`
}

// DefaultElo is the rating cutoff used when none is given.
const DefaultElo = 1500

var formats = map[string]Format{
	"regf": {
		Code:         "regf",
		Name:         "Regulation F",
		SmogonID:     "gen9vgc2026regfbo3",
		Months:       []string{"2025-11", "2025-12"},
		Elos:         []int{0, 1500, 1630, 1760},
		TeamIDPrefix: "F",
		Current:      true,
	},
}

// LookupFormat returns a registered format by code, or by Smogon ID.
func LookupFormat(code string) (Format, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if f, ok := formats[code]; ok {
		return f, nil
	}
	for _, f := range formats {
		if f.SmogonID == code {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("unknown format %q (available: %s)", code, strings.Join(FormatCodes(), ", "))
}

// CurrentFormat returns the format marked current.
func CurrentFormat() Format {
	for _, code := range FormatCodes() {
		if f := formats[code]; f.Current {
			return f
		}
	}
	return formats["regf"]
}

// FormatCodes lists registered codes in order.
func FormatCodes() []string {
	codes := make([]string, 0, len(formats))
	for c := range formats {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// HasElo reports whether the format publishes statistics for a cutoff.
func (f Format) HasElo(elo int) bool {
	for _, e := range f.Elos {
		if e == elo {
			return true
		}
	}
	return false
}
