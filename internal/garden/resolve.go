package garden

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/nvandessel/verdant/internal/models"
)

// minPrefixLen is the shortest id prefix accepted as a reference.
const minPrefixLen = 4

// resolveID maps ref to an entry of ids: an exact match, or a unique prefix
// of at least minPrefixLen characters. ok is false when nothing matches or
// a prefix is ambiguous.
func resolveID(ref string, ids []string) (id string, ok bool) {
	for _, candidate := range ids {
		if candidate == ref {
			return candidate, true
		}
	}
	if len(ref) < minPrefixLen {
		return "", false
	}
	match := ""
	for _, candidate := range ids {
		if strings.HasPrefix(candidate, ref) {
			if match != "" {
				return "", false
			}
			match = candidate
		}
	}
	return match, match != ""
}

func countPrefix(ref string, ids []string) int {
	n := 0
	for _, candidate := range ids {
		if strings.HasPrefix(candidate, ref) {
			n++
		}
	}
	return n
}

// suggest returns the id closest to ref by edit distance, or "" when
// nothing is close enough to be a plausible typo.
func suggest(ref string, ids []string) string {
	best, bestDist := "", -1
	for _, candidate := range ids {
		// Compare against the same-length prefix so long generated ids are
		// not penalized for the characters the user did not type.
		target := candidate
		if len(target) > len(ref) {
			target = target[:len(ref)]
		}
		d := levenshtein.ComputeDistance(ref, target)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	limit := len(ref) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

func plantIDs(g *models.GardenState) []string {
	ids := make([]string, 0, len(g.Plants))
	for _, p := range g.Plants {
		ids = append(ids, p.ID)
	}
	return ids
}

func seedIDs(g *models.GardenState) []string {
	ids := make([]string, 0, len(g.Resources.Seeds))
	for _, sd := range g.Resources.Seeds {
		ids = append(ids, sd.ID)
	}
	return ids
}

// findPlant resolves ref to a plant index or returns a NotFound error.
func findPlant(op string, g *models.GardenState, ref string) (int, error) {
	ids := plantIDs(g)
	if id, ok := resolveID(ref, ids); ok {
		return g.FindPlant(id), nil
	}
	if countPrefix(ref, ids) > 1 {
		return -1, notFound(op, "plant prefix %q is ambiguous", ref)
	}
	e := notFound(op, "plant %q not found", ref)
	e.Suggestion = suggest(ref, ids)
	return -1, e
}

// findSeed resolves ref to an inventory seed index or returns a NotFound error.
func findSeed(op string, g *models.GardenState, ref string) (int, error) {
	ids := seedIDs(g)
	if id, ok := resolveID(ref, ids); ok {
		return g.FindSeed(id), nil
	}
	if countPrefix(ref, ids) > 1 {
		return -1, notFound(op, "seed prefix %q is ambiguous", ref)
	}
	e := notFound(op, "seed %q not found", ref)
	e.Suggestion = suggest(ref, ids)
	return -1, e
}
