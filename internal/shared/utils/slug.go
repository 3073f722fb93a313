package utils

import (
	"regexp"
	"strings"
)

// diacriticReplacements maps accented characters to their ASCII
// transliteration. Umlauts follow the German convention (two letters), the
// rest drop their mark.
var diacriticReplacements = []struct {
	from string
	to   string
}{
	{"ä", "ae"}, {"ö", "oe"}, {"ü", "ue"}, {"ß", "ss"},
	{"à", "a"}, {"á", "a"}, {"â", "a"}, {"ã", "a"}, {"å", "a"}, {"ā", "a"}, {"æ", "ae"},
	{"ç", "c"}, {"ć", "c"}, {"č", "c"},
	{"è", "e"}, {"é", "e"}, {"ê", "e"}, {"ë", "e"}, {"ē", "e"}, {"ę", "e"},
	{"ì", "i"}, {"í", "i"}, {"î", "i"}, {"ï", "i"}, {"ī", "i"},
	{"ñ", "n"}, {"ń", "n"},
	{"ò", "o"}, {"ó", "o"}, {"ô", "o"}, {"õ", "o"}, {"ø", "o"}, {"ō", "o"},
	{"ù", "u"}, {"ú", "u"}, {"û", "u"}, {"ū", "u"},
	{"ý", "y"}, {"ÿ", "y"},
	{"ž", "z"}, {"ź", "z"}, {"ż", "z"},
	{"š", "s"}, {"ś", "s"},
	{"ł", "l"},
	{"đ", "d"},
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^a-z0-9-]`)
	dashRunsRe   = regexp.MustCompile(`-{2,}`)
	trimDashesRe = regexp.MustCompile(`^-+|-+$`)
)

// Slugify derives a deterministic URL-safe identifier from an arbitrary
// string. The transform is stable: Slugify(Slugify(x)) == Slugify(x).
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRe.ReplaceAllString(s, "-")
	for _, r := range diacriticReplacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	s = nonWordRe.ReplaceAllString(s, "")
	s = dashRunsRe.ReplaceAllString(s, "-")
	s = trimDashesRe.ReplaceAllString(s, "")
	return s
}
