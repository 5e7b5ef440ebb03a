package ocr

import (
	"regexp"
	"strings"

	"tcgtracker/internal/catalog"
)

// Text parsing pulls the two match keys out of raw OCR output: a collector
// number (e.g. "059/131") or a promo identifier (e.g. "SM05", "SVP 123"), plus
// a best-effort card name used to filter out cross-card collisions. The name
// does not need to be canonical, only good enough to reject wrong-name
// candidates sharing the same number.

var (
	// Standard slash-style set number like 059/131.
	slashNumber = regexp.MustCompile(`\b(\d{1,4}\s*/\s*\d{1,4})\b`)

	// Promo-like identifiers: SM05, SWSH125, SVP 123, XY123, BW123, ...
	promoNumber = regexp.MustCompile(`(?i)\b(SVP|SWSH|SM|XY|BW|DP|HGSS|POP)\s*-?\s*(\d{1,4})\b`)

	// Older promos: the word PROMO followed by a small integer nearby.
	wotcPromoNumber = regexp.MustCompile(`(?is)\bPROMO\b[\s\S]{0,140}?\b(\d{1,3})\b`)

	junkLine = []string{"weakness", "resistance", "retreat", "illus", "rule"}

	nonNameChars = regexp.MustCompile(`[^A-Za-z0-9'’\-\s&]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Tokens that appear on nearly every card and never belong to the name.
var stopwords = map[string]bool{
	"basic": true, "stage": true, "pokemon": true, "pokémon": true,
	"trainer": true, "energy": true, "hp": true, "weakness": true,
	"resistance": true, "retreat": true, "rule": true, "illus": true,
	"illustration": true, "attack": true, "attacks": true,
	"ability": true, "abilities": true,
}

// Mechanic suffixes stripped so variants collapse to the base name.
var cardSuffixes = map[string]bool{
	"gx": true, "ex": true, "v": true, "vmax": true, "vstar": true,
	"lv": true, "lvl": true, "tag": true, "team": true,
	"break": true, "prime": true, "delta": true, "radiant": true,
}

// Extraction is the parsed output of one OCR text blob. Raw fields keep what
// was read; Norm fields are the canonical lookup keys.
type Extraction struct {
	CollectorNumberRaw  string
	CollectorNumberNorm string
	PromoNumberRaw      string
	PromoNumberNorm     string
	CardName            string
}

// ParseText extracts collector number, promo number and card name from raw
// OCR text. It never fails; fields the text does not yield stay empty.
func ParseText(text string) Extraction {
	var ex Extraction

	if m := slashNumber.FindStringSubmatch(text); m != nil {
		ex.CollectorNumberRaw = strings.ReplaceAll(m[1], " ", "")
		ex.CollectorNumberNorm = catalog.NormalizeCollectorNumber(ex.CollectorNumberRaw)
	}

	if m := promoNumber.FindStringSubmatch(text); m != nil {
		ex.PromoNumberRaw = strings.ToUpper(m[1]) + m[2]
	} else if m := wotcPromoNumber.FindStringSubmatch(text); m != nil {
		ex.PromoNumberRaw = m[1]
	}
	if ex.PromoNumberRaw != "" {
		ex.PromoNumberNorm = catalog.NormalizePromoNumber(ex.PromoNumberRaw)
	}

	ex.CardName = extractCardName(text)
	return ex
}

// extractCardName scans early lines of the text (the name sits near the top of
// most scans), drops boilerplate tokens and mechanic suffixes, and returns a
// short title-ish result, or "" when nothing plausible is found.
func extractCardName(text string) string {
	if text == "" {
		return ""
	}

	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) > 60 {
		lines = lines[:60]
	}

	for _, ln := range lines {
		low := strings.ToLower(ln)

		skip := false
		for _, tok := range junkLine {
			if strings.Contains(low, tok) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		letters := 0
		for _, r := range ln {
			if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
				letters++
			}
		}
		if letters < 4 {
			continue
		}

		cleaned := nonNameChars.ReplaceAllString(ln, " ")
		cleaned = strings.TrimSpace(multiSpace.ReplaceAllString(cleaned, " "))

		var kept []string
		for _, t := range strings.Fields(cleaned) {
			tl := strings.ToLower(t)
			if stopwords[tl] || cardSuffixes[tl] || tl == "&" {
				continue
			}
			kept = append(kept, t)
		}
		if len(kept) == 0 {
			continue
		}

		name := strings.Join(kept, " ")
		if stopwords[strings.ToLower(name)] {
			continue
		}
		if len(name) < 3 || len(name) > 30 {
			continue
		}
		return name
	}

	return ""
}
