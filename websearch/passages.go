package websearch

import (
	"fmt"

	"github.com/poiesic/hybridrag/core"
)

// ToPassages normalizes hits into web passages. Missing or empty url, engine
// and title are replaced by sentinels so the keys are always present.
func ToPassages(hits []core.SearchHit) []core.Passage {
	passages := make([]core.Passage, 0, len(hits))
	for _, hit := range hits {
		p := core.Passage{
			Content: fmt.Sprintf("Title: %s\nContent: %s", hit.Title, hit.Content),
			Metadata: map[string]string{
				core.MetaURL:    orDefault(hit.URL, core.SentinelURL),
				core.MetaEngine: orDefault(hit.Engine, core.SentinelEngine),
				core.MetaTitle:  orDefault(hit.Title, core.SentinelTitle),
			},
			Source: core.SourceWeb,
			Rank:   hit.Rank,
		}
		p.Id = core.EntryID(p)
		passages = append(passages, p)
	}
	return passages
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
