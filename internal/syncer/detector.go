package syncer

import (
	"time"

	"github.com/marcw/psync/internal/content"
)

// SubstantialFields maps a content kind to the frontmatter fields the
// third-tier diff compares between the parsed item and the stored
// root. The special field "content" compares the item body. The table
// is a package variable so callers can tune the whitelist.
var SubstantialFields = map[string][]string{
	content.KindPost:    {"title", "description", "content"},
	content.KindEpisode: {"title", "description", "content"},
	content.KindProject: {"title", "description", "content"},
	content.KindIdea:    {"title", "abstract", "content"},
	content.KindUpdate:  {"title", "description"},
	content.KindResume:  {"full_name", "headline", "summary"},
}

// ExistingRoot is the slice of a stored root entity the change
// detector needs: its last update time and its substantial fields.
type ExistingRoot struct {
	UpdatedAt time.Time
	Fields    map[string]string
}

// IsUnchanged decides skip-vs-sync for one item against its stored
// root, layering three checks:
//
//  1. no stored root: changed (new item)
//  2. source file newer than the stored update time: changed
//  3. any substantial field differing: changed
//
// Modification time alone is unreliable across copy and checkout
// operations, and a hash comparison alone misses out-of-band edits to
// the store, so both later tiers stay in place.
func IsUnchanged(existing *ExistingRoot, item *content.Item, payload content.Payload) bool {
	if existing == nil {
		return false
	}

	if mtime := item.ModTime(); !mtime.IsZero() {
		// Both instants compared offset-naive at second precision.
		fileAt := mtime.UTC().Truncate(time.Second)
		storedAt := existing.UpdatedAt.UTC().Truncate(time.Second)
		if fileAt.After(storedAt) {
			return false
		}
	}

	for _, field := range SubstantialFields[item.Type] {
		stored, tracked := existing.Fields[field]
		if !tracked {
			continue
		}
		if stored != substantialValue(payload, field) {
			return false
		}
	}

	return true
}

// fieldAliases maps a substantial field to the frontmatter keys that
// may carry it, in lookup order. Mappers and the third-tier diff read
// through the same table, so a value accepted under an alias on one
// run is found under that alias again on the next.
var fieldAliases = map[string][]string{
	"description": {"description", "summary"},
	"abstract":    {"abstract", "description"},
	"full_name":   {"full_name", "name"},
	"headline":    {"headline", "title"},
	"summary":     {"summary", "description"},
}

func substantialValue(p content.Payload, field string) string {
	if field == "content" {
		return p.Content
	}
	if keys, ok := fieldAliases[field]; ok {
		return p.String(keys...)
	}
	return p.String(field)
}
