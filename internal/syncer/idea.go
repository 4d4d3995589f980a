package syncer

import (
	"fmt"
	"strings"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"gorm.io/gorm"
)

// ideaMapper handles research ideas: the root row plus the single
// progress/results/references detail row.
type ideaMapper struct{}

func (m *ideaMapper) Kind() string { return content.KindIdea }

func (m *ideaMapper) NaturalKey(item *content.Item, p content.Payload) string {
	return slugOf(item, p)
}

func (m *ideaMapper) Lookup(db *gorm.DB, key string) (*ExistingRoot, error) {
	idea, err := findRoot[store.Idea](db, "slug = ?", key)
	if err != nil || idea == nil {
		return nil, err
	}
	return &ExistingRoot{
		UpdatedAt: idea.UpdatedAt,
		Fields: map[string]string{
			"title":    idea.Title,
			"abstract": idea.Abstract,
			"content":  idea.Content,
		},
	}, nil
}

func (m *ideaMapper) Upsert(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats) error {
	slug := slugOf(item, p)

	existing, err := findRoot[store.Idea](tx, "slug = ?", slug)
	if err != nil {
		return err
	}

	idea := existing
	if idea == nil {
		idea = &store.Idea{OwnerID: ownerID, Slug: slug}
	}

	idea.Title = p.String("title")
	idea.Abstract = substantialValue(p, "abstract")
	idea.Content = p.Content
	idea.Status = p.String("status")
	idea.UpdatedAt = touch()

	if existing == nil {
		if err := tx.Create(idea).Error; err != nil {
			return fmt.Errorf("idea create failed: %w", err)
		}
		stats.Created++
	} else {
		if err := tx.Save(idea).Error; err != nil {
			return fmt.Errorf("idea update failed: %w", err)
		}
		stats.Updated++
	}

	return m.upsertDetail(tx, idea.ID, p)
}

func (m *ideaMapper) upsertDetail(tx *gorm.DB, ideaID uint, p content.Payload) error {
	detail, err := findRoot[store.IdeaDetail](tx, "idea_id = ?", ideaID)
	if err != nil {
		return err
	}
	if detail == nil {
		detail = &store.IdeaDetail{IdeaID: ideaID}
	}

	detail.Progress = p.String("progress")
	detail.Results = p.String("results")
	// References are commonly a frontmatter list; store one per line.
	detail.References = strings.Join(p.StringList("references"), "\n")
	detail.UpdatedAt = touch()

	if err := tx.Save(detail).Error; err != nil {
		return fmt.Errorf("idea detail upsert failed: %w", err)
	}
	return nil
}

func (m *ideaMapper) ExistingKeys(db *gorm.DB) ([]string, error) {
	var slugs []string
	err := db.Model(&store.Idea{}).Pluck("slug", &slugs).Error
	return slugs, err
}

func (m *ideaMapper) DeleteByKeys(tx *gorm.DB, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var ids []uint
	if err := tx.Model(&store.Idea{}).Where("slug IN ?", keys).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := tx.Where("idea_id IN ?", ids).Delete(&store.IdeaDetail{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&store.Idea{}).Error; err != nil {
		return 0, err
	}

	return len(ids), nil
}
