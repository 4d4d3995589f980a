package syncer

import (
	"fmt"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"gorm.io/gorm"
)

// episodeMapper handles episodic posts: posts grouped under a shared
// Series root and ordered by an episode number.
type episodeMapper struct{}

func (m *episodeMapper) Kind() string { return content.KindEpisode }

func (m *episodeMapper) NaturalKey(item *content.Item, p content.Payload) string {
	if p.Language(PrimaryLanguage) != PrimaryLanguage {
		return ""
	}
	return slugOf(item, p)
}

func (m *episodeMapper) Lookup(db *gorm.DB, key string) (*ExistingRoot, error) {
	return (&postMapper{}).Lookup(db, key)
}

func (m *episodeMapper) Upsert(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats) error {
	if lang := p.Language(PrimaryLanguage); lang != PrimaryLanguage {
		return upsertTranslation(tx, slugOf(item, p), lang, p, stats)
	}

	series, err := resolveSeries(tx, p)
	if err != nil {
		return err
	}

	ordinal := p.Int("episode")
	if ordinal == 0 {
		ordinal = p.Int("episode_number")
	}

	if _, err := upsertPost(tx, item, p, ownerID, stats, &series.ID, &ordinal); err != nil {
		return err
	}

	return recountEpisodes(tx, series.ID)
}

func (m *episodeMapper) ExistingKeys(db *gorm.DB) ([]string, error) {
	var slugs []string
	err := db.Model(&store.Post{}).Where("series_id IS NOT NULL").Pluck("slug", &slugs).Error
	return slugs, err
}

func (m *episodeMapper) DeleteByKeys(tx *gorm.DB, keys []string) (int, error) {
	// Capture affected series before the rows go away.
	var seriesIDs []uint
	if err := tx.Model(&store.Post{}).Distinct("series_id").
		Where("series_id IS NOT NULL AND slug IN ?", keys).
		Pluck("series_id", &seriesIDs).Error; err != nil {
		return 0, err
	}

	n, err := deletePosts(tx, keys, "series_id IS NOT NULL")
	if err != nil {
		return 0, err
	}

	for _, id := range seriesIDs {
		if err := recountEpisodes(tx, id); err != nil {
			return n, err
		}
	}

	return n, nil
}

// resolveSeries gets or creates the shared Series root named by the
// item's frontmatter.
func resolveSeries(tx *gorm.DB, p content.Payload) (*store.Series, error) {
	name := p.String("series")
	if name == "" {
		return nil, fmt.Errorf("episode is missing a series name")
	}

	var series store.Series
	err := tx.Where(&store.Series{Slug: content.Slugify(name)}).
		Attrs(&store.Series{Title: name, Description: p.String("series_description")}).
		FirstOrCreate(&series).Error
	if err != nil {
		return nil, fmt.Errorf("series lookup failed for %q: %w", name, err)
	}
	return &series, nil
}

// recountEpisodes refreshes a series' episode count from a live count
// query. Never incremented from a running counter, so repeated and
// out-of-order syncs converge on the right number. A series left with
// no episodes is an orphan itself and is removed.
func recountEpisodes(tx *gorm.DB, seriesID uint) error {
	var n int64
	if err := tx.Model(&store.Post{}).Where("series_id = ?", seriesID).Count(&n).Error; err != nil {
		return fmt.Errorf("episode count failed: %w", err)
	}
	if n == 0 {
		if err := tx.Delete(&store.Series{}, seriesID).Error; err != nil {
			return fmt.Errorf("empty series delete failed: %w", err)
		}
		return nil
	}
	if err := tx.Model(&store.Series{}).Where("id = ?", seriesID).
		Update("episode_count", int(n)).Error; err != nil {
		return fmt.Errorf("episode count update failed: %w", err)
	}
	return nil
}
