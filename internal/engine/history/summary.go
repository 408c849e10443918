package history

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/inkwell/internal/surface"
)

// summarizer describes the plain-text change between two snapshots.
// Plain-text projections are cached by snapshot ID since every GetHistory
// call would otherwise re-parse every entry.
type summarizer struct {
	dmp   *diffmatchpatch.DiffMatchPatch
	texts *cache.Cache
}

func newSummarizer() *summarizer {
	return &summarizer{
		dmp:   diffmatchpatch.New(),
		texts: cache.New(10*time.Minute, 20*time.Minute),
	}
}

// Summarize returns "+N -M" for inserted/deleted characters, or
// "formatting" when only markup changed.
func (s *summarizer) Summarize(prev, next Snapshot) string {
	a := s.plainText(prev)
	b := s.plainText(next)

	inserted, deleted := 0, 0
	for _, d := range s.dmp.DiffMain(a, b, false) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted += utf8.RuneCountInString(d.Text)
		}
	}

	if inserted == 0 && deleted == 0 {
		return "formatting"
	}
	return fmt.Sprintf("+%d -%d", inserted, deleted)
}

func (s *summarizer) plainText(snap Snapshot) string {
	key := snap.ID.String()
	if v, ok := s.texts.Get(key); ok {
		return v.(string)
	}

	root, err := surface.Parse(snap.Content)
	if err != nil {
		return ""
	}
	text := surface.PlainText(root)
	s.texts.Set(key, text, cache.DefaultExpiration)
	return text
}

func (s *summarizer) flush() {
	s.texts.Flush()
}
