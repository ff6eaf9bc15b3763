package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "unicode content",
			content:  "藜麦的营养价值很高",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestEntryID_IncludesHeadingPath(t *testing.T) {
	a := Passage{Content: "same text", Metadata: map[string]string{"Header1": "A"}}
	b := Passage{Content: "same text", Metadata: map[string]string{"Header1": "B"}}
	c := Passage{Content: "same text", Metadata: map[string]string{"Header1": "A"}}

	if EntryID(a) == EntryID(b) {
		t.Errorf("EntryID() ignored heading path")
	}
	if EntryID(a) != EntryID(c) {
		t.Errorf("EntryID() is not deterministic")
	}
}

func TestPassage_SetMetaDefault(t *testing.T) {
	p := Passage{Content: "x"}
	p.SetMetaDefault(MetaURL, SentinelURL)
	if got := p.Meta(MetaURL); got != SentinelURL {
		t.Errorf("Meta(url) = %q, want %q", got, SentinelURL)
	}

	p.Metadata[MetaTitle] = "kept"
	p.SetMetaDefault(MetaTitle, SentinelTitle)
	if got := p.Meta(MetaTitle); got != "kept" {
		t.Errorf("SetMetaDefault overwrote existing value: %q", got)
	}
}

func TestPassage_Clone(t *testing.T) {
	p := Passage{Content: "x", Metadata: map[string]string{"k": "v"}}
	c := p.Clone()
	c.Metadata["k"] = "changed"

	if p.Metadata["k"] != "v" {
		t.Errorf("Clone() shares metadata map with original")
	}
}

func TestIndexEntry_RoundTripToPassage(t *testing.T) {
	p := Passage{Content: "body", Metadata: map[string]string{"Header2": "营养价值"}}
	entry := NewIndexEntry(p, []float32{1, 0})

	got := entry.Passage()
	if got.Content != p.Content || got.Meta("Header2") != "营养价值" {
		t.Errorf("Passage() = %+v, want content and heading preserved", got)
	}
	if got.Id != entry.Id {
		t.Errorf("Passage() lost entry ID")
	}
}
