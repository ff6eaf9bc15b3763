package search

import (
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/poiesic/hybridrag/core"
)

// merge tags candidates by origin and concatenates them, web first.
// Inputs are not modified.
func merge(local, web []core.Passage) []core.Passage {
	combined := make([]core.Passage, 0, len(local)+len(web))
	for _, p := range web {
		combined = append(combined, tag(p, core.SourceWeb))
	}
	for _, p := range local {
		combined = append(combined, tag(p, core.SourceLocal))
	}
	return combined
}

// tag copies p, setting its source when absent. Local passages always carry a url.
func tag(p core.Passage, origin core.Source) core.Passage {
	p = p.Clone()
	if p.Source == "" {
		p.Source = origin
	}
	if p.Source == core.SourceLocal {
		p.SetMetaDefault(core.MetaURL, core.SentinelURL)
	}
	return p
}

// Rank sorts passages in place: web before local, web by descending rank,
// ties by descending content length in runes. The sort is stable.
func Rank(passages []core.Passage) {
	slices.SortStableFunc(passages, comparePassages)
}

func comparePassages(a, b core.Passage) int {
	aWeb, bWeb := a.Source == core.SourceWeb, b.Source == core.SourceWeb
	if aWeb != bWeb {
		if aWeb {
			return -1
		}
		return 1
	}
	if aWeb && a.Rank != b.Rank {
		if a.Rank > b.Rank {
			return -1
		}
		return 1
	}
	la, lb := utf8.RuneCountInString(a.Content), utf8.RuneCountInString(b.Content)
	switch {
	case la > lb:
		return -1
	case la < lb:
		return 1
	}
	return 0
}

// Dedup keeps the first passage for each fingerprint and returns the dropped ones.
func Dedup(passages []core.Passage, titlePrefix, contentPrefix int) (kept, dropped []core.Passage) {
	seen := make(map[string]struct{}, len(passages))
	kept = make([]core.Passage, 0, len(passages))
	for _, p := range passages {
		fp := Fingerprint(p, titlePrefix, contentPrefix)
		if _, dup := seen[fp]; dup {
			dropped = append(dropped, p)
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, p)
	}
	return kept, dropped
}

// Fingerprint identifies near-identical passages: the leading runes of the
// title joined with a hash of the leading runes of the content.
func Fingerprint(p core.Passage, titlePrefix, contentPrefix int) string {
	title := prefixRunes(p.Meta(core.MetaTitle), titlePrefix)
	sum := xxhash.Sum64String(prefixRunes(p.Content, contentPrefix))
	return title + "_" + strconv.FormatUint(sum, 16)
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
