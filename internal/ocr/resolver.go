package ocr

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"tcgtracker/internal/catalog"
)

// Match strategies, recorded on the resolution row.
const (
	StrategyCollectorNumber = "collector_number_norm"
	StrategyExtNumber       = "ext_number_norm"
)

// Outcome is the terminal state of a resolution attempt. Unresolved is a
// normal outcome, not a fault: it covers both "nothing matched" and "too many
// equally plausible candidates".
type Outcome string

const (
	OutcomeMatched    Outcome = "matched"
	OutcomeUnresolved Outcome = "unresolved"
)

// Resolution is the ranked result of matching one extraction against the
// catalog.
type Resolution struct {
	Outcome    Outcome
	Card       *catalog.Entry // set only when Outcome == OutcomeMatched
	Confidence float64        // bounded [0,1]
	Strategy   string
	Reason     string // why the attempt ended unresolved
	MatchCount int    // candidate rows considered after name filtering
	// Distinct products sharing the matched number (variant spread).
	VariantProductCount int
}

// Resolver matches parsed OCR extractions against the in-memory catalog
// index. It is read-only and safe for concurrent use.
type Resolver struct {
	Index *catalog.Index
	// Minimum confidence for a match to be accepted.
	Threshold float64
}

// Candidates with a confidence gap smaller than this are considered
// indistinguishable.
const ambiguityGap = 0.05

// Base confidence of an exact normalized-number match; name similarity scales
// it down when a name was extracted.
const (
	baseCollector = 0.9
	baseExt       = 0.8
)

// Resolve ranks catalog candidates for one extraction and returns the best
// match, or an unresolved outcome when no candidate clears the acceptance
// threshold or two distinct products are equally strong.
func (r *Resolver) Resolve(ex Extraction) Resolution {
	candidates, strategy := r.lookup(ex)
	if strategy == "" {
		return Resolution{Outcome: OutcomeUnresolved, Reason: "no number extracted"}
	}
	if len(candidates) == 0 {
		return Resolution{Outcome: OutcomeUnresolved, Strategy: strategy, Reason: "no catalog card with number"}
	}

	name := catalog.NormalizeName(ex.CardName)
	candidates = filterByName(candidates, name)

	base := baseCollector
	if strategy == StrategyExtNumber {
		base = baseExt
	}

	bestScore, secondScore := 0.0, 0.0
	var best *catalog.Entry
	for i := range candidates {
		score := base
		if name != "" {
			score = base * (0.5 + 0.5*similarity(name, candidates[i].CleanName))
		}
		if score > bestScore {
			if best != nil && best.ProductID != candidates[i].ProductID {
				secondScore = bestScore
			}
			bestScore = score
			best = &candidates[i]
		} else if best != nil && best.ProductID != candidates[i].ProductID && score > secondScore {
			secondScore = score
		}
	}

	res := Resolution{
		Strategy:            strategy,
		Confidence:          clamp01(bestScore),
		MatchCount:          len(candidates),
		VariantProductCount: distinctProducts(candidates),
	}

	if bestScore < r.Threshold {
		res.Outcome = OutcomeUnresolved
		res.Reason = "best candidate below acceptance threshold"
		return res
	}
	if secondScore > 0 && bestScore-secondScore < ambiguityGap {
		res.Outcome = OutcomeUnresolved
		res.Reason = "multiple equally strong candidates"
		return res
	}

	res.Outcome = OutcomeMatched
	res.Card = best
	return res
}

// lookup prefers the collector number; the promo (ext) number is the fallback
// key for cards that only carry a promo identifier.
func (r *Resolver) lookup(ex Extraction) ([]catalog.Entry, string) {
	if ex.CollectorNumberNorm != "" {
		return r.Index.ByCollectorNumber(ex.CollectorNumberNorm), StrategyCollectorNumber
	}
	if ex.PromoNumberNorm != "" {
		return r.Index.ByExtNumber(ex.PromoNumberNorm), StrategyExtNumber
	}
	return nil, ""
}

// filterByName drops candidates whose clean name does not contain the
// extracted name. When the filter would empty the set it is skipped, so a
// badly-read name never erases a solid number match.
func filterByName(candidates []catalog.Entry, name string) []catalog.Entry {
	if name == "" {
		return candidates
	}
	var kept []catalog.Entry
	for _, c := range candidates {
		if strings.Contains(c.CleanName, name) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

// similarity is an edit-distance ratio in [0,1]; 1 means identical.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	if d >= longest {
		return 0
	}
	return 1 - float64(d)/float64(longest)
}

func distinctProducts(candidates []catalog.Entry) int {
	seen := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		seen[c.ProductID] = true
	}
	return len(seen)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
