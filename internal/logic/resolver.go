package logic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// matchTier ranks how well a query matched a team name. Lower is better.
type matchTier int

const (
	tierExact matchTier = iota + 1
	tierSuffix
	tierPrefix
	tierSubstring
	tierNone
)

// NormalizeTeam lowercases, strips accents and collapses whitespace.
func NormalizeTeam(name string) string {
	name = strings.ToLower(name)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}

	return strings.Join(strings.Fields(name), " ")
}

// tierFor scores a normalized query against one normalized team name.
// Suffix and prefix only count on word boundaries, so "leafs" and
// "maple leafs" both hit "toronto maple leafs" while "afs" does not.
func tierFor(query, name string) matchTier {
	switch {
	case name == "":
		return tierNone
	case query == name:
		return tierExact
	case strings.HasSuffix(name, " "+query):
		return tierSuffix
	case strings.HasPrefix(name, query+" "):
		return tierPrefix
	case strings.Contains(name, query):
		return tierSubstring
	default:
		return tierNone
	}
}

func recordTier(query string, rec models.GameRecord) matchTier {
	away := tierFor(query, NormalizeTeam(rec.AwayTeam))
	home := tierFor(query, NormalizeTeam(rec.HomeTeam))
	if home < away {
		return home
	}
	return away
}

// Resolve maps a free-text query to a game. The best tier across all records
// wins: exact name, then trailing words (nickname), then leading words (city),
// then any substring. Several distinct games in the winning tier yield an
// ambiguous result listing them in input order.
func Resolve(query string, records []models.GameRecord) models.Resolution {
	q := NormalizeTeam(query)
	res := models.Resolution{Status: models.ResolutionNotFound, Query: query}
	if q == "" {
		return res
	}

	best := tierNone
	var matches []models.GameRecord
	seen := make(map[models.PickKey]bool)

	for _, rec := range records {
		tier := recordTier(q, rec)
		if tier == tierNone || tier > best {
			continue
		}
		if tier < best {
			best = tier
			matches = matches[:0]
			seen = make(map[models.PickKey]bool)
		}
		key := models.PickKey{Date: rec.GameDate, AwayTeam: rec.AwayTeam, HomeTeam: rec.HomeTeam}
		if seen[key] {
			continue
		}
		seen[key] = true
		matches = append(matches, rec)
	}

	switch len(matches) {
	case 0:
		return res
	case 1:
		rec := matches[0]
		res.Status = models.ResolutionFound
		res.Record = &rec
	default:
		res.Status = models.ResolutionAmbiguous
		res.Candidates = append([]models.GameRecord(nil), matches...)
	}
	return res
}

// ResolveFirst returns the first record in input order that matches the query
// by away substring, home substring, last token or first token. It is the
// legacy lookup and ignores ambiguity.
func ResolveFirst(query string, records []models.GameRecord) (models.GameRecord, bool) {
	q := NormalizeTeam(query)
	if q == "" {
		return models.GameRecord{}, false
	}

	for _, rec := range records {
		away := NormalizeTeam(rec.AwayTeam)
		home := NormalizeTeam(rec.HomeTeam)
		if strings.Contains(away, q) || strings.Contains(home, q) {
			return rec, true
		}
		for _, name := range []string{away, home} {
			words := strings.Fields(name)
			if len(words) == 0 {
				continue
			}
			if words[len(words)-1] == q || words[0] == q {
				return rec, true
			}
		}
	}
	return models.GameRecord{}, false
}
