// Package ids composes the stable identifiers and display names of objects,
// buildings and listings from normalized fields.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var ruTranslit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

var (
	reNonSlug    = regexp.MustCompile(`[^a-z0-9]+`)
	reMultiDash  = regexp.MustCompile(`-+`)
	reTokenStr   = regexp.MustCompile(`(?i)стр\.?\s*(\d+)`)
	reTokenKorp  = regexp.MustCompile(`(?i)корпус\s*(\d+)`)
	reTokenLiter = regexp.MustCompile(`(?i)литер(?:а|ы)?\s*([a-zа-я])`)
	reTokenBlok  = regexp.MustCompile(`(?i)блок\s*([a-zа-я])`)
	reLeadZeros  = regexp.MustCompile(`^0+(\d)`)
)

// Slug builds an identifier-friendly slug: Cyrillic transliterated to Latin,
// lowercased, non-alphanumeric runs replaced by a single hyphen, hyphens
// trimmed at both ends.
func Slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if t, ok := ruTranslit[r]; ok {
			b.WriteString(t)
			continue
		}
		b.WriteRune(r)
	}
	out := reNonSlug.ReplaceAllString(b.String(), "-")
	out = reMultiDash.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// BuildingToken extracts the sub-building qualifier from a free-form building
// name. Recognized patterns: "стр. N", "корпус N", "литера X", "блок X"; at
// most one token is extracted, first pattern wins. Unrecognized non-empty
// input is returned cleaned, so a bare token like "стр 2" still resolves.
func BuildingToken(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if m := reTokenStr.FindStringSubmatch(s); m != nil {
		return "стр. " + stripLeadingZeros(m[1])
	}
	if m := reTokenKorp.FindStringSubmatch(s); m != nil {
		return "корпус " + stripLeadingZeros(m[1])
	}
	if m := reTokenLiter.FindStringSubmatch(s); m != nil {
		return "литера " + strings.ToUpper(m[1])
	}
	if m := reTokenBlok.FindStringSubmatch(s); m != nil {
		return "блок " + strings.ToUpper(m[1])
	}
	return s
}

// BuildingTokenSlug is Slug(BuildingToken(raw)), "" when no token.
func BuildingTokenSlug(raw string) string {
	tok := BuildingToken(raw)
	if tok == "" {
		return ""
	}
	return Slug(tok)
}

// ObjectID is the slug of the object name.
func ObjectID(objectName string) string {
	return Slug(objectName)
}

// BuildingID composes "<object_id>__<token_slug>", or the object id alone
// when the raw building name carries no token.
func BuildingID(objectName, rawBuildingName string) string {
	oid := ObjectID(objectName)
	if ts := BuildingTokenSlug(rawBuildingName); ts != "" {
		return oid + "__" + ts
	}
	return oid
}

// ComposeBuildingName builds the display name "<object_name>, <token>". When
// the raw building name already contains the object name it is used as-is;
// a token already present in the object name is not appended twice.
func ComposeBuildingName(objectName, rawBuildingName string) string {
	obj := strings.TrimSpace(objectName)
	raw := strings.TrimSpace(rawBuildingName)
	if raw != "" && obj != "" && strings.Contains(strings.ToLower(raw), strings.ToLower(obj)) {
		return raw
	}
	token := BuildingToken(raw)
	if token == "" || (obj != "" && strings.Contains(strings.ToLower(obj), strings.ToLower(token))) {
		if obj != "" {
			return obj
		}
		return raw
	}
	if obj == "" {
		return token
	}
	return obj + ", " + token
}

// ListingParts are the normalized fields a listing id is composed from.
type ListingParts struct {
	ObjectName      string
	RawBuildingName string
	UseType         string
	Floors          string
	AreaSqm         *float64
}

// ListingID composes the informational listing identifier: slugged parts
// joined by "__" plus an 8-character content hash of the source file
// basename. The hash is deterministic across runs; collisions are tolerable
// because the listing id is never the sync key.
func ListingID(p ListingParts, sourceFile string) string {
	area := ""
	if p.AreaSqm != nil {
		area = fmt.Sprintf("%.1f", *p.AreaSqm)
	}
	parts := []string{
		ObjectID(p.ObjectName),
		BuildingTokenSlug(p.RawBuildingName),
		Slug(p.UseType),
		Slug(p.Floors),
		area,
	}
	base := strings.Join(parts, "__")
	digest := Hash8(Basename(sourceFile))
	if base == "" {
		return digest
	}
	return base + "__" + digest
}

// Hash8 is the first 8 hex characters of the SHA-256 of s.
func Hash8(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// Basename strips directory components, tolerating both separators.
func Basename(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func stripLeadingZeros(digits string) string {
	out := reLeadZeros.ReplaceAllString(digits, "$1")
	return out
}
