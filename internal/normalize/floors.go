package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FloorConfig drives floor descriptor parsing and rendering.
type FloorConfig struct {
	// DropTokens are filler words removed before tokenizing, in order.
	// Order matters: "этаж" must be dropped before "эт".
	DropTokens []string
	// SplitSeparators break a multi-value descriptor into tokens.
	SplitSeparators []string
	// RangeSeparators mark an inclusive numeric range inside one token.
	RangeSeparators []string
	// Specials maps lowercase tokens to canonical non-numeric floor labels.
	// "-1" conventionally maps to the basement label.
	Specials map[string]string

	JoinToken string
	RangeDash string
}

// DefaultFloorConfig returns the floor rules used for Russian listings.
func DefaultFloorConfig() FloorConfig {
	return FloorConfig{
		DropTokens:      []string{"этаж", "эт", "э."},
		SplitSeparators: []string{",", ";", "/", " и ", "&"},
		RangeSeparators: []string{"-", "–"},
		Specials: map[string]string{
			"подвал":  "подвал",
			"-1":      "подвал",
			"цоколь":  "цоколь",
			"мезонин": "мезонин",
		},
		JoinToken: "; ",
		RangeDash: "–",
	}
}

// Floor is a single parsed floor: either a number or a special label.
type Floor struct {
	Num   int
	Label string
	IsNum bool
}

var reInt = regexp.MustCompile(`^-?\d+$`)

// ParseFloors parses a raw floor descriptor into an ordered list of floors.
// Multi-value input is split on the configured separators, ranges are
// expanded into their member integers, filler words are dropped and special
// labels (basement, socle, mezzanine) are mapped to canonical tokens.
// Unrecognized textual tokens are ignored.
func ParseFloors(raw string, cfg FloorConfig) []Floor {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}
	for _, tok := range cfg.DropTokens {
		s = strings.ReplaceAll(s, strings.ToLower(tok), " ")
	}
	for _, sep := range cfg.SplitSeparators {
		s = strings.ReplaceAll(s, sep, "|")
	}
	rangeRes := make([]*regexp.Regexp, len(cfg.RangeSeparators))
	for i, d := range cfg.RangeSeparators {
		rangeRes[i] = rangeRe(d)
	}

	var out []Floor
	appendNum := func(n int) {
		if label, ok := cfg.Specials[strconv.Itoa(n)]; ok {
			out = append(out, Floor{Label: label})
			return
		}
		out = append(out, Floor{Num: n, IsNum: true})
	}

	for _, tok := range strings.Split(s, "|") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if a, b, ok := expandRange(tok, rangeRes); ok {
			for n := a; n <= b; n++ {
				appendNum(n)
			}
			continue
		}
		if reInt.MatchString(tok) {
			n, _ := strconv.Atoi(tok)
			appendNum(n)
			continue
		}
		if label, ok := cfg.Specials[tok]; ok {
			out = append(out, Floor{Label: label})
		}
	}
	return out
}

// rangeResCache holds one compiled range pattern per separator, so parsing
// never recompiles inside the token loop.
var (
	rangeResMu    sync.Mutex
	rangeResCache = make(map[string]*regexp.Regexp)
)

func rangeRe(sep string) *regexp.Regexp {
	rangeResMu.Lock()
	defer rangeResMu.Unlock()
	re, ok := rangeResCache[sep]
	if !ok {
		re = regexp.MustCompile(`^\s*(-?\d+)\s*` + regexp.QuoteMeta(sep) + `\s*(-?\d+)\s*$`)
		rangeResCache[sep] = re
	}
	return re
}

// expandRange recognizes "a-b" with one of the configured dashes. Strictly
// two integers; a reversed range is swapped.
func expandRange(tok string, res []*regexp.Regexp) (int, int, bool) {
	for _, re := range res {
		m := re.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if a > b {
			a, b = b, a
		}
		return a, b, true
	}
	return 0, 0, false
}

// RenderFloors renders parsed floors canonically: numeric floors first,
// deduplicated and sorted ascending with consecutive runs compressed into
// dash ranges, then special labels in first-encounter order, all joined by
// the configured join token.
func RenderFloors(floors []Floor, cfg FloorConfig) string {
	var nums []int
	seenNum := make(map[int]struct{})
	var labels []string
	seenLabel := make(map[string]struct{})

	for _, f := range floors {
		if f.IsNum {
			if _, ok := seenNum[f.Num]; !ok {
				seenNum[f.Num] = struct{}{}
				nums = append(nums, f.Num)
			}
			continue
		}
		if _, ok := seenLabel[f.Label]; !ok {
			seenLabel[f.Label] = struct{}{}
			labels = append(labels, f.Label)
		}
	}
	sort.Ints(nums)

	pieces := append(compressRuns(nums, cfg.RangeDash), labels...)
	return strings.Join(pieces, cfg.JoinToken)
}

// Floors is the parse-then-render convenience used by the pipeline.
func Floors(raw string, cfg FloorConfig) string {
	return RenderFloors(ParseFloors(raw, cfg), cfg)
}

func compressRuns(nums []int, dash string) []string {
	if len(nums) == 0 {
		return nil
	}
	var out []string
	start, prev := nums[0], nums[0]
	flush := func() {
		if start == prev {
			out = append(out, strconv.Itoa(start))
			return
		}
		out = append(out, strconv.Itoa(start)+dash+strconv.Itoa(prev))
	}
	for _, n := range nums[1:] {
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()
	return out
}
