package app

import (
	"strings"

	ac "github.com/petar-dambovaliev/aho-corasick"
	"golang.org/x/text/unicode/norm"
)

// DefaultExcludeNames lists franchise and chain names that are never
// recommended.
var DefaultExcludeNames = []string{
	"스타벅스", "투썸", "투썸플레이스", "이디야", "커피빈", "빽다방", "컴포즈커피",
	"엔제리너스", "탐앤탐스", "파리바게뜨", "뚜레쥬르", "던킨도너츠", "베스킨라빈스",
	"맥도날드", "버거킹", "롯데리아", "KFC", "BHC", "BBQ",
	"교촌치킨", "굽네치킨", "네네치킨", "페리카나", "도미노피자",
	"피자헛", "미스터피자", "본죽",
}

// ExclusionSet matches place names containing any excluded substring.
// It is immutable after construction and safe for concurrent use.
type ExclusionSet struct {
	matcher ac.AhoCorasick
	size    int
}

func NewExclusionSet(names []string) *ExclusionSet {
	pats := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = norm.NFC.String(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		pats = append(pats, n)
	}
	if len(pats) == 0 {
		return &ExclusionSet{}
	}
	b := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
	})
	return &ExclusionSet{matcher: b.Build(pats), size: len(pats)}
}

func (e *ExclusionSet) Len() int {
	if e == nil {
		return 0
	}
	return e.size
}

// Excluded reports whether name contains any excluded substring.
func (e *ExclusionSet) Excluded(name string) bool {
	if e == nil || e.size == 0 {
		return false
	}
	return e.matcher.Iter(norm.NFC.String(name)).Next() != nil
}
