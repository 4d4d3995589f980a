package syncer

import (
	"errors"
	"time"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"gorm.io/gorm"
)

// PrimaryLanguage is the language roots are stored in. Items in any
// other language attach translation rows to their primary sibling.
const PrimaryLanguage = "en"

// Mapper translates parsed content items of one kind into a root
// entity plus its owned sub-collections. Side effects are limited to
// the transaction handed in and the Stats counters.
type Mapper interface {
	// Kind returns the content kind this mapper handles.
	Kind() string

	// NaturalKey returns the reconciliation join key for the item,
	// or "" when the item is not a root (a translation).
	NaturalKey(item *content.Item, p content.Payload) string

	// Lookup fetches the change-detection slice of the stored root
	// under key, or nil when absent.
	Lookup(db *gorm.DB, key string) (*ExistingRoot, error)

	// Upsert creates or overwrites the root and replaces its
	// sub-collections, bumping the Stats counters.
	Upsert(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats) error

	// ExistingKeys returns the natural keys of every stored root of
	// this kind.
	ExistingKeys(db *gorm.DB) ([]string, error)

	// DeleteByKeys removes the roots under the given keys along with
	// their dependents, dependents first. Returns roots deleted.
	DeleteByKeys(tx *gorm.DB, keys []string) (int, error)
}

// Mappers returns all mappers in deterministic processing order.
func Mappers() []Mapper {
	return []Mapper{
		&postMapper{},
		&episodeMapper{},
		&projectMapper{},
		&ideaMapper{},
		&updateMapper{},
		&resumeMapper{},
	}
}

// MapperFor returns the mapper for a content kind, or nil.
func MapperFor(kind string) Mapper {
	for _, m := range Mappers() {
		if m.Kind() == kind {
			return m
		}
	}
	return nil
}

// slugOf derives the natural slug for an item: explicit frontmatter
// slug first, then the item name.
func slugOf(item *content.Item, p content.Payload) string {
	if s := p.String("slug"); s != "" {
		return content.Slugify(s)
	}
	return content.Slugify(item.Name)
}

// touch returns the shared wall-clock update timestamp for a root.
func touch() time.Time {
	return time.Now().UTC()
}

// tagBySlug looks up or creates the shared tag row for a name.
func tagBySlug(tx *gorm.DB, name string) (store.Tag, error) {
	var t store.Tag
	err := tx.Where(&store.Tag{Slug: content.Slugify(name)}).
		Attrs(&store.Tag{Name: name}).
		FirstOrCreate(&t).Error
	return t, err
}

// categoryBySlug looks up or creates the shared category row for a name.
func categoryBySlug(tx *gorm.DB, name string) (store.Category, error) {
	var c store.Category
	err := tx.Where(&store.Category{Slug: content.Slugify(name)}).
		Attrs(&store.Category{Name: name}).
		FirstOrCreate(&c).Error
	return c, err
}

// technologyBySlug looks up or creates the shared technology row for a name.
func technologyBySlug(tx *gorm.DB, name string) (store.Technology, error) {
	var t store.Technology
	err := tx.Where(&store.Technology{Slug: content.Slugify(name)}).
		Attrs(&store.Technology{Name: name}).
		FirstOrCreate(&t).Error
	return t, err
}

// findRoot loads a root by a where clause, mapping gorm's not-found
// to a nil result.
func findRoot[T any](db *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	err := db.Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
