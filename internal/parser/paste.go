package parser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// MaxMoves is the number of moves kept per set.
const MaxMoves = 4

// ErrEmptyPaste is returned for a paste with no sets.
var ErrEmptyPaste = errors.New("paste contains no Pokemon")

var (
	blankLine   = regexp.MustCompile(`\n\s*\n`)
	genderTag   = regexp.MustCompile(`\s*\(([MF])\)\s*$`)
	speciesTag  = regexp.MustCompile(`\(([^)]+)\)`)
	pasteIDPath = regexp.MustCompile(`^/?([0-9a-fA-F]+)(/raw)?/?$`)
)

// ParsePaste reads a Showdown export with up to six sets separated by blank
// lines. Unparseable stat lines are logged and left at their defaults.
func (p *Parser) ParsePaste(text string) ([]core.TeamMember, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	if text == "" {
		return nil, ErrEmptyPaste
	}

	var members []core.TeamMember
	for _, block := range blankLine.Split(text, -1) {
		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}
		m := p.parseSet(lines)
		m.Slot = len(members) + 1
		members = append(members, m)
		if len(members) == 6 {
			break
		}
	}
	if len(members) == 0 {
		return nil, ErrEmptyPaste
	}
	return members, nil
}

func (p *Parser) parseSet(lines []string) core.TeamMember {
	m := core.TeamMember{
		Level: 50,
		IVs:   uniform(31),
	}

	// "Nickname (Species) (M) @ Item"
	head := lines[0]
	if name, item, ok := strings.Cut(head, " @ "); ok {
		head, m.Item = name, strings.TrimSpace(item)
	}
	head = strings.TrimSpace(head)
	if g := genderTag.FindStringSubmatch(head); g != nil {
		m.Gender = g[1]
		head = strings.TrimSpace(head[:len(head)-len(g[0])])
	}
	if s := speciesTag.FindStringSubmatchIndex(head); s != nil {
		m.Nickname = strings.TrimSpace(head[:s[0]])
		m.Pokemon = strings.TrimSpace(head[s[2]:s[3]])
	} else {
		m.Pokemon = head
	}
	m.SpeciesID = dex.ToID(m.Pokemon)

	for _, line := range lines[1:] {
		key, value, hasColon := strings.Cut(line, ":")
		value = strings.TrimSpace(value)
		switch {
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "-"):
			if len(m.Moves) < MaxMoves {
				mv := strings.TrimSpace(strings.TrimPrefix(line, "-"))
				// "Hidden Power [Fire]" keeps its bracket
				m.Moves = append(m.Moves, mv)
			}
		case strings.HasSuffix(line, " Nature"):
			m.Nature = strings.TrimSpace(strings.TrimSuffix(line, " Nature"))
		case hasColon && key == "Ability":
			m.Ability = value
		case hasColon && key == "Tera Type":
			m.TeraType = value
		case hasColon && key == "Level":
			if lvl, err := strconv.Atoi(value); err == nil && lvl >= 1 && lvl <= 100 {
				m.Level = lvl
			}
		case hasColon && key == "EVs":
			evs, err := ParseEVs(value)
			if err != nil {
				p.logger.Warn("Ignoring malformed EVs", "pokemon", m.Pokemon, "error", err)
				continue
			}
			m.EVs = evs
		case hasColon && key == "IVs":
			ivs, err := ParseIVs(value)
			if err != nil {
				p.logger.Warn("Ignoring malformed IVs", "pokemon", m.Pokemon, "error", err)
				continue
			}
			m.IVs = ivs
		}
	}
	return m
}

// PasteID extracts the paste ID from a pokepast.es URL or a bare ID.
func PasteID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty paste URL")
	}
	path := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid paste URL %q: %w", raw, err)
		}
		if !strings.HasSuffix(u.Hostname(), "pokepast.es") {
			return "", fmt.Errorf("not a pokepast.es URL: %q", raw)
		}
		path = u.Path
	}
	m := pasteIDPath.FindStringSubmatch(path)
	if m == nil {
		return "", fmt.Errorf("no paste ID in %q", raw)
	}
	return strings.ToLower(m[1]), nil
}
