package syncer

import (
	"fmt"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"github.com/marcw/psync/internal/util"
	"gorm.io/gorm"
)

// postMapper handles standalone blog posts. Episodic posts (members
// of a series) belong to the episode mapper; the two split the posts
// table on series membership so reconciliation sets stay disjoint.
type postMapper struct{}

func (m *postMapper) Kind() string { return content.KindPost }

func (m *postMapper) NaturalKey(item *content.Item, p content.Payload) string {
	if p.Language(PrimaryLanguage) != PrimaryLanguage {
		// Translations are not roots.
		return ""
	}
	return slugOf(item, p)
}

func (m *postMapper) Lookup(db *gorm.DB, key string) (*ExistingRoot, error) {
	post, err := findRoot[store.Post](db, "slug = ?", key)
	if err != nil || post == nil {
		return nil, err
	}
	return &ExistingRoot{
		UpdatedAt: post.UpdatedAt,
		Fields: map[string]string{
			"title":       post.Title,
			"description": post.Description,
			"content":     post.Content,
		},
	}, nil
}

func (m *postMapper) Upsert(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats) error {
	if lang := p.Language(PrimaryLanguage); lang != PrimaryLanguage {
		return upsertTranslation(tx, slugOf(item, p), lang, p, stats)
	}
	_, err := upsertPost(tx, item, p, ownerID, stats, nil, nil)
	return err
}

func (m *postMapper) ExistingKeys(db *gorm.DB) ([]string, error) {
	var slugs []string
	err := db.Model(&store.Post{}).Where("series_id IS NULL").Pluck("slug", &slugs).Error
	return slugs, err
}

func (m *postMapper) DeleteByKeys(tx *gorm.DB, keys []string) (int, error) {
	return deletePosts(tx, keys, "series_id IS NULL")
}

// upsertPost creates or overwrites a post root and replaces its tag
// and category sets. seriesID/episode are set for episodic posts and
// cleared otherwise, so a post moving out of a series loses its
// grouping on the next sync.
func upsertPost(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats, seriesID *uint, episode *int) (*store.Post, error) {
	slug := slugOf(item, p)

	existing, err := findRoot[store.Post](tx, "slug = ?", slug)
	if err != nil {
		return nil, err
	}

	post := existing
	if post == nil {
		post = &store.Post{OwnerID: ownerID, Slug: slug}
	}

	// Scalars are overwritten wholesale, blanks included, so stale
	// values never survive a sync.
	post.Title = p.String("title")
	post.Description = substantialValue(p, "description")
	post.Content = p.Content
	post.Language = PrimaryLanguage
	post.Published = !p.Bool("draft")
	post.SeriesID = seriesID
	post.EpisodeNumber = episode
	if t := p.Time("date"); !t.IsZero() {
		published := t.UTC()
		post.PublishedAt = &published
	} else {
		post.PublishedAt = nil
	}
	post.UpdatedAt = touch()

	if existing == nil {
		if err := tx.Create(post).Error; err != nil {
			return nil, fmt.Errorf("post create failed: %w", err)
		}
		stats.Created++
	} else {
		if err := tx.Save(post).Error; err != nil {
			return nil, fmt.Errorf("post update failed: %w", err)
		}
		stats.Updated++
	}

	if err := replacePostTags(tx, post, p.StringList("tags")); err != nil {
		return nil, err
	}
	if err := replacePostCategories(tx, post, p.StringList("categories")); err != nil {
		return nil, err
	}

	return post, nil
}

// replacePostTags swaps the post's tag set for the parsed one.
func replacePostTags(tx *gorm.DB, post *store.Post, names []string) error {
	tags := make([]store.Tag, 0, len(names))
	for _, name := range names {
		tag, err := tagBySlug(tx, name)
		if err != nil {
			return fmt.Errorf("tag lookup failed for %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	if err := tx.Model(post).Association("Tags").Replace(&tags); err != nil {
		return fmt.Errorf("tag replacement failed: %w", err)
	}
	return nil
}

// replacePostCategories swaps the post's category set for the parsed one.
func replacePostCategories(tx *gorm.DB, post *store.Post, names []string) error {
	categories := make([]store.Category, 0, len(names))
	for _, name := range names {
		cat, err := categoryBySlug(tx, name)
		if err != nil {
			return fmt.Errorf("category lookup failed for %q: %w", name, err)
		}
		categories = append(categories, cat)
	}
	if err := tx.Model(post).Association("Categories").Replace(&categories); err != nil {
		return fmt.Errorf("category replacement failed: %w", err)
	}
	return nil
}

// upsertTranslation attaches a non-primary-language item to its
// primary sibling's root, located by the shared-slug convention (a
// translated file lives in the same folder and inherits the folder's
// slug). A missing sibling is a deferral, not an error: the warning
// is recorded and the item is retried naturally on the next run.
func upsertTranslation(tx *gorm.DB, slug, lang string, p content.Payload, stats *Stats) error {
	sibling, err := findRoot[store.Post](tx, "slug = ?", slug)
	if err != nil {
		return err
	}
	if sibling == nil {
		stats.AddWarning("translation %s/%s deferred: %v", slug, lang, util.ErrSiblingMissing)
		return nil
	}

	title := p.String("title")
	description := substantialValue(p, "description")

	existing, err := findRoot[store.PostTranslation](tx, "post_id = ? AND language_code = ?", sibling.ID, lang)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Title == title && existing.Description == description && existing.Content == p.Content {
			stats.Skipped++
			return nil
		}
		existing.Title = title
		existing.Description = description
		existing.Content = p.Content
		existing.UpdatedAt = touch()
		if err := tx.Save(existing).Error; err != nil {
			return fmt.Errorf("translation update failed: %w", err)
		}
		stats.Updated++
		return nil
	}

	row := store.PostTranslation{
		PostID:       sibling.ID,
		LanguageCode: lang,
		Title:        title,
		Description:  description,
		Content:      p.Content,
		UpdatedAt:    touch(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("translation create failed: %w", err)
	}
	stats.Created++
	return nil
}

// deletePosts removes posts under the given slugs, dependents first:
// join rows and translations, then the roots. scope narrows the
// delete to the calling mapper's half of the posts table.
func deletePosts(tx *gorm.DB, keys []string, scope string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var posts []store.Post
	if err := tx.Where(scope).Where("slug IN ?", keys).Find(&posts).Error; err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	if err := tx.Exec("DELETE FROM post_tags WHERE post_id IN ?", ids).Error; err != nil {
		return 0, err
	}
	if err := tx.Exec("DELETE FROM post_categories WHERE post_id IN ?", ids).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("post_id IN ?", ids).Delete(&store.PostTranslation{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&store.Post{}).Error; err != nil {
		return 0, err
	}

	return len(posts), nil
}
