// Package category groups loosely named occurrences into reporting categories.
package category

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/sandeepkv93/slotd/internal/model"
)

// Palette is assigned to categories by their sorted position.
var Palette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
	"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
}

// Input is one occurrence reduced to what reporting needs.
type Input struct {
	Title   string
	Minutes int
}

type Category struct {
	Name       string
	Minutes    int
	TotalHours float64
	Color      string
	// Titles are the distinct original titles merged into the category, sorted.
	Titles []string
}

// Inputs reduces occurrences to reporting inputs.
func Inputs(occs []model.Occurrence) []Input {
	out := make([]Input, 0, len(occs))
	for _, o := range occs {
		out = append(out, Input{Title: o.Title, Minutes: o.Minutes()})
	}
	return out
}

// Normalize folds case, turns hyphens and underscores into spaces and collapses whitespace.
func Normalize(title string) string {
	// a Caser keeps state, so one per call
	folded := cases.Fold().String(title)
	folded = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// compact is the grouping key: the normalized title without spaces, so "co op" and "coop" meet.
func compact(norm string) string {
	return strings.ReplaceAll(norm, " ", "")
}

type group struct {
	key     string
	forms   map[string]struct{}
	counts  map[string]int
	minutes int
}

func (g *group) absorb(o *group) {
	for f := range o.forms {
		g.forms[f] = struct{}{}
	}
	for t, n := range o.counts {
		g.counts[t] += n
	}
	g.minutes += o.minutes
}

// Canonicalize groups inputs by normalized title, merges groups whose titles
// contain one another as whole words, and returns them sorted by name with
// palette colors. The result does not depend on input order.
func Canonicalize(inputs []Input) []Category {
	byKey := make(map[string]*group)
	for _, in := range inputs {
		title := strings.TrimSpace(in.Title)
		norm := Normalize(title)
		if norm == "" {
			continue
		}
		key := compact(norm)
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, forms: map[string]struct{}{}, counts: map[string]int{}}
			byKey[key] = g
		}
		g.forms[norm] = struct{}{}
		g.counts[title]++
		g.minutes += in.Minutes
	}

	groups := make([]*group, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })

	merged := mergeRelated(groups)

	out := make([]Category, 0, len(merged))
	for _, g := range merged {
		titles := make([]string, 0, len(g.counts))
		for t := range g.counts {
			titles = append(titles, t)
		}
		sort.Strings(titles)
		out = append(out, Category{
			Name:       canonicalName(g.counts),
			Minutes:    g.minutes,
			TotalHours: float64(g.minutes) / 60,
			Titles:     titles,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if li != lj {
			return li < lj
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Color = Palette[i%len(Palette)]
	}
	return out
}

// mergeRelated unions every pair of related groups. groups must be sorted by key.
func mergeRelated(groups []*group) []*group {
	parent := make([]int, len(groups))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			if !groupsRelated(groups[i], groups[j]) {
				continue
			}
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			if ri > rj {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	roots := make(map[int]*group)
	order := make([]int, 0)
	for i, g := range groups {
		r := find(i)
		root, ok := roots[r]
		if !ok {
			root = &group{key: groups[r].key, forms: map[string]struct{}{}, counts: map[string]int{}}
			roots[r] = root
			order = append(order, r)
		}
		root.absorb(g)
	}
	out := make([]*group, 0, len(order))
	for _, r := range order {
		out = append(out, roots[r])
	}
	return out
}

func groupsRelated(a, b *group) bool {
	for fa := range a.forms {
		for fb := range b.forms {
			if related(fa, fb) {
				return true
			}
		}
	}
	return false
}

// related reports whether the shorter normalized title occurs in the longer one
// as whole words. Titles under three characters only join a longer title that
// starts with them followed by a space.
func related(a, b string) bool {
	short, long := a, b
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if short == long || short == "" {
		return short == long
	}
	if utf8.RuneCountInString(short) < 3 {
		return strings.HasPrefix(long, short+" ")
	}
	return containsWords(long, short)
}

// containsWords reports whether sub occurs in s bounded by spaces or the string ends.
func containsWords(s, sub string) bool {
	for from := 0; from <= len(s)-len(sub); {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(sub)
		if (i == 0 || s[i-1] == ' ') && (end == len(s) || s[end] == ' ') {
			return true
		}
		from = i + 1
	}
	return false
}

// canonicalName picks the display name of a group: the most frequent title,
// then the shorter, then a capitalized one, then the lexically first. A clearly
// shorter title contained in it wins as the base name.
func canonicalName(counts map[string]int) string {
	titles := make([]string, 0, len(counts))
	for t := range counts {
		titles = append(titles, t)
	}
	sort.Slice(titles, func(i, j int) bool { return better(titles[i], titles[j], counts) })
	chosen := titles[0]

	chosenNorm := Normalize(chosen)
	chosenLen := utf8.RuneCountInString(chosen)
	bases := make([]string, 0)
	for _, alt := range titles[1:] {
		altLen := utf8.RuneCountInString(alt)
		if altLen >= chosenLen {
			continue
		}
		if !containsWords(chosenNorm, Normalize(alt)) {
			continue
		}
		if chosenLen-altLen >= 3 || counts[alt] >= 2 {
			bases = append(bases, alt)
		}
	}
	if len(bases) == 0 {
		return chosen
	}
	sort.Slice(bases, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(bases[i]), utf8.RuneCountInString(bases[j])
		if li != lj {
			return li < lj
		}
		return better(bases[i], bases[j], counts)
	})
	return bases[0]
}

func better(a, b string, counts map[string]int) bool {
	if counts[a] != counts[b] {
		return counts[a] > counts[b]
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la != lb {
		return la < lb
	}
	ca, cb := capitalized(a), capitalized(b)
	if ca != cb {
		return ca
	}
	return a < b
}

func capitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
