package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalization turns the raw name and number strings printed on cards (or
// misread by OCR) into stable lookup keys. All functions here are pure and
// idempotent: normalizing an already-normalized value is a no-op.

// Tokens that vary between printings of the same card and carry no identity.
var fillerTokens = map[string]bool{
	"1st":       true,
	"edition":   true,
	"unlimited": true,
}

var nonNameChars = regexp.MustCompile(`[^a-z0-9'\-/\s]+`)

// NormalizeName lowercases, strips diacritics and punctuation, collapses
// whitespace and drops edition markers, so visually-equivalent names collide
// to the same key. Unparseable input degrades to the empty string.
func NormalizeName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripDiacritics(s)
	s = nonNameChars.ReplaceAllString(s, " ")

	var kept []string
	for _, tok := range strings.Fields(s) {
		if fillerTokens[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// A collector number part: optional letter prefix, a digit run (possibly with
// OCR O-for-0 misreads), optional alphanumeric suffix (promo markers etc.).
var numPart = regexp.MustCompile(`^([A-Z]*)([0-9O]+)([A-Z0-9]*)$`)

// NormalizeCollectorNumber canonicalizes a collector number such as
// "059/131", "SM05" or "O59/131" (OCR zero misread). Leading zeros are
// stripped per numeric part, "O" adjacent to digits is treated as "0", and
// slash pairs are normalized on both sides. Suffixes are preserved.
func NormalizeCollectorNumber(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return s
	}

	if left, right, ok := strings.Cut(s, "/"); ok {
		return normalizeNumPart(left) + "/" + normalizeNumPart(right)
	}
	return normalizeNumPart(s)
}

func normalizeNumPart(part string) string {
	m := numPart.FindStringSubmatch(part)
	if m == nil {
		return part
	}
	prefix, digits, suffix := m[1], m[2], m[3]

	// A trailing O on the prefix next to a digit run is almost always a
	// misread zero ("PO5" -> "P5", "O59" -> "59").
	for strings.HasSuffix(prefix, "O") {
		prefix = strings.TrimSuffix(prefix, "O")
		digits = "0" + digits
	}
	digits = strings.ReplaceAll(digits, "O", "0")

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	return prefix + digits + suffix
}

var (
	slashNumber = regexp.MustCompile(`^\s*(\d{1,4})\s*/\s*(\d{1,4})\s*$`)
	promoAlpha  = regexp.MustCompile(`^([A-Z]{2,6})-?(\d{1,4})$`)
	nonDigits   = regexp.MustCompile(`\D`)
)

// NormalizePromoNumber canonicalizes promo identifiers ("SVP 123" -> "SVP123",
// "sm05" -> "SM05"). Unlike collector numbers, a leading zero in a promo id is
// significant ("SM05" and "SM5" are different promos), so zero-padding width
// is preserved.
func NormalizePromoNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	if m := slashNumber.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		return strconv.Itoa(a) + "/" + strconv.Itoa(b)
	}

	compact := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(s))
	if m := promoAlpha.FindStringSubmatch(compact); m != nil {
		prefix := m[1]
		num, _ := strconv.Atoi(m[2])
		tail := nonDigits.ReplaceAllString(s, "")
		if strings.HasPrefix(tail, "0") {
			width := min(4, max(2, len(tail)))
			return prefix + pad(num, width)
		}
		return prefix + strconv.Itoa(num)
	}

	// Pure numeric ids (e.g. WOTC Black Star promo numbers).
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == s && digits != "" {
		n, _ := strconv.Atoi(digits)
		return strconv.Itoa(n)
	}

	return compact
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
