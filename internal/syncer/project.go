package syncer

import (
	"fmt"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"gorm.io/gorm"
)

// projectMapper handles portfolio projects: the root row, the shared
// technology set, and the single structured detail row.
type projectMapper struct{}

func (m *projectMapper) Kind() string { return content.KindProject }

func (m *projectMapper) NaturalKey(item *content.Item, p content.Payload) string {
	return slugOf(item, p)
}

func (m *projectMapper) Lookup(db *gorm.DB, key string) (*ExistingRoot, error) {
	project, err := findRoot[store.Project](db, "slug = ?", key)
	if err != nil || project == nil {
		return nil, err
	}
	return &ExistingRoot{
		UpdatedAt: project.UpdatedAt,
		Fields: map[string]string{
			"title":       project.Title,
			"description": project.Description,
			"content":     project.Content,
		},
	}, nil
}

func (m *projectMapper) Upsert(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats) error {
	slug := slugOf(item, p)

	existing, err := findRoot[store.Project](tx, "slug = ?", slug)
	if err != nil {
		return err
	}

	project := existing
	if project == nil {
		project = &store.Project{OwnerID: ownerID, Slug: slug}
	}

	project.Title = p.String("title")
	project.Description = substantialValue(p, "description")
	project.Content = p.Content
	project.Status = p.String("status")
	project.Featured = p.Bool("featured")
	project.RepoURL = p.String("repo", "repository", "github")
	project.DemoURL = p.String("demo", "url")
	project.UpdatedAt = touch()

	if existing == nil {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("project create failed: %w", err)
		}
		stats.Created++
	} else {
		if err := tx.Save(project).Error; err != nil {
			return fmt.Errorf("project update failed: %w", err)
		}
		stats.Updated++
	}

	if err := m.replaceTechnologies(tx, project, p.StringList("technologies")); err != nil {
		return err
	}

	return m.upsertDetail(tx, project.ID, p)
}

// replaceTechnologies swaps the project's technology set for the
// parsed one.
func (m *projectMapper) replaceTechnologies(tx *gorm.DB, project *store.Project, names []string) error {
	techs := make([]store.Technology, 0, len(names))
	for _, name := range names {
		tech, err := technologyBySlug(tx, name)
		if err != nil {
			return fmt.Errorf("technology lookup failed for %q: %w", name, err)
		}
		techs = append(techs, tech)
	}
	if err := tx.Model(project).Association("Technologies").Replace(&techs); err != nil {
		return fmt.Errorf("technology replacement failed: %w", err)
	}
	return nil
}

// upsertDetail overwrites the project's single detail row in place,
// empty values included, so stale detail never survives.
func (m *projectMapper) upsertDetail(tx *gorm.DB, projectID uint, p content.Payload) error {
	detail, err := findRoot[store.ProjectDetail](tx, "project_id = ?", projectID)
	if err != nil {
		return err
	}
	if detail == nil {
		detail = &store.ProjectDetail{ProjectID: projectID}
	}

	detail.Readme = p.String("readme")
	detail.License = p.String("license")
	detail.Version = p.String("version")
	detail.UpdatedAt = touch()

	if err := tx.Save(detail).Error; err != nil {
		return fmt.Errorf("project detail upsert failed: %w", err)
	}
	return nil
}

func (m *projectMapper) ExistingKeys(db *gorm.DB) ([]string, error) {
	var slugs []string
	err := db.Model(&store.Project{}).Pluck("slug", &slugs).Error
	return slugs, err
}

func (m *projectMapper) DeleteByKeys(tx *gorm.DB, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var ids []uint
	if err := tx.Model(&store.Project{}).Where("slug IN ?", keys).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := tx.Exec("DELETE FROM project_technologies WHERE project_id IN ?", ids).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("project_id IN ?", ids).Delete(&store.ProjectDetail{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&store.Project{}).Error; err != nil {
		return 0, err
	}

	return len(ids), nil
}
