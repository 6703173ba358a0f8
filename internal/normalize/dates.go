package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NowSentinel marks current availability instead of a calendar date.
const NowSentinel = "сейчас"

// nowTokens are phrases meaning "available now".
var nowTokens = []string{"сейчас", "свободно", "готово к въезду", "сегодня"}

var ruMonths = map[string]int{
	"январь": 1, "января": 1, "янв": 1,
	"февраль": 2, "февраля": 2, "фев": 2,
	"март": 3, "марта": 3,
	"апрель": 4, "апреля": 4, "апр": 4,
	"май": 5, "мая": 5,
	"июнь": 6, "июня": 6,
	"июль": 7, "июля": 7,
	"август": 8, "августа": 8, "авг": 8,
	"сентябрь": 9, "сентября": 9, "сен": 9,
	"октябрь": 10, "октября": 10, "окт": 10,
	"ноябрь": 11, "ноября": 11, "ноя": 11,
	"декабрь": 12, "декабря": 12, "дек": 12,
}

var romanQuarters = map[string]int{"i": 1, "ii": 2, "iii": 3, "iv": 4}

// Quarter boundaries: Q1..Q4 map to the last calendar day of the quarter.
var quarterEnd = map[int]string{1: "03-31", 2: "06-30", 3: "09-30", 4: "12-31"}

var (
	reNumericDate  = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})[./](\d{4})`)
	reQuarterLatin = regexp.MustCompile(`q\s*([1-4])\s*(\d{4})`)
	reQuarterRu    = regexp.MustCompile(`([1-4])\s*кв(?:\.|артал)?\s*(\d{4})`)
	reQuarterRoman = regexp.MustCompile(`(iv|iii|ii|i)\s*кв(?:\.|артал)?\s*(\d{4})`)
	reTextualDate  = regexp.MustCompile(`(?:(\d{1,2})\s+)?([а-яё]+)\s*,?\s*(\d{4})?`)
)

// DeliveryDate normalizes a raw delivery date to ISO 8601 (YYYY-MM-DD) or to
// NowSentinel for "available now" phrases. Month-without-day input resolves
// to the first day of the month; a quarter resolves to its last day; a month
// without a year uses defaultYear. Unparseable input yields "".
func DeliveryDate(raw string, defaultYear int) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	for _, tok := range nowTokens {
		if strings.Contains(s, tok) {
			return NowSentinel
		}
	}

	// Strip comparison prefixes and trailing "г." noise.
	for _, p := range []string{">=", "<=", ">", "<"} {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSpace(s), "г.")
	s = strings.TrimSpace(s)

	if m := reQuarterLatin.FindStringSubmatch(s); m != nil {
		q, _ := strconv.Atoi(m[1])
		return m[2] + "-" + quarterEnd[q]
	}
	if m := reQuarterRu.FindStringSubmatch(s); m != nil {
		q, _ := strconv.Atoi(m[1])
		return m[2] + "-" + quarterEnd[q]
	}
	if m := reQuarterRoman.FindStringSubmatch(s); m != nil {
		return m[2] + "-" + quarterEnd[romanQuarters[m[1]]]
	}

	if m := reNumericDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return isoDate(year, month, day)
	}

	// Textual Russian date: optional day, month name, optional year.
	for _, m := range reTextualDate.FindAllStringSubmatch(s, -1) {
		month, ok := ruMonths[m[2]]
		if !ok {
			continue
		}
		day := 1
		if m[1] != "" {
			day, _ = strconv.Atoi(m[1])
		}
		year := defaultYear
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		return isoDate(year, month, day)
	}

	return ""
}

// isoDate validates the components against the real calendar; "32.13.2025"
// style input yields "".
func isoDate(year, month, day int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
