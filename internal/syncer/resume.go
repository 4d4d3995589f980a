package syncer

import (
	"fmt"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"gorm.io/gorm"
)

// resumeMapper handles resume documents: one root row plus five owned
// section row sets, each replaced wholesale on every sync.
type resumeMapper struct{}

func (m *resumeMapper) Kind() string { return content.KindResume }

func (m *resumeMapper) NaturalKey(item *content.Item, p content.Payload) string {
	return slugOf(item, p)
}

func (m *resumeMapper) Lookup(db *gorm.DB, key string) (*ExistingRoot, error) {
	resume, err := findRoot[store.Resume](db, "slug = ?", key)
	if err != nil || resume == nil {
		return nil, err
	}
	return &ExistingRoot{
		UpdatedAt: resume.UpdatedAt,
		Fields: map[string]string{
			"full_name": resume.FullName,
			"headline":  resume.Headline,
			"summary":   resume.Summary,
		},
	}, nil
}

func (m *resumeMapper) Upsert(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats) error {
	slug := slugOf(item, p)

	existing, err := findRoot[store.Resume](tx, "slug = ?", slug)
	if err != nil {
		return err
	}

	resume := existing
	if resume == nil {
		resume = &store.Resume{OwnerID: ownerID, Slug: slug}
	}

	resume.FullName = substantialValue(p, "full_name")
	resume.Headline = substantialValue(p, "headline")
	resume.Summary = substantialValue(p, "summary")
	resume.Email = p.String("email")
	resume.Location = p.String("location")
	resume.UpdatedAt = touch()

	if existing == nil {
		if err := tx.Create(resume).Error; err != nil {
			return fmt.Errorf("resume create failed: %w", err)
		}
		stats.Created++
	} else {
		if err := tx.Save(resume).Error; err != nil {
			return fmt.Errorf("resume update failed: %w", err)
		}
		stats.Updated++
	}

	return m.replaceSections(tx, resume.ID, p)
}

// sectionRows decodes a frontmatter list of maps into sub-payloads.
func sectionRows(p content.Payload, key string) []content.Payload {
	list, ok := p.Frontmatter[key].([]any)
	if !ok {
		return nil
	}
	rows := make([]content.Payload, 0, len(list))
	for _, e := range list {
		if fields, ok := e.(map[string]any); ok {
			rows = append(rows, content.Payload{Frontmatter: fields})
		}
	}
	return rows
}

// replaceSections deletes and reinserts every section row set. The
// Position column preserves the document order of each section.
func (m *resumeMapper) replaceSections(tx *gorm.DB, resumeID uint, p content.Payload) error {
	owned := []any{
		&store.ResumeEducation{},
		&store.ResumeExperience{},
		&store.ResumeAward{},
		&store.ResumePublication{},
		&store.ResumeResearch{},
	}
	for _, model := range owned {
		if err := tx.Where("resume_id = ?", resumeID).Delete(model).Error; err != nil {
			return fmt.Errorf("resume section clear failed: %w", err)
		}
	}

	for i, row := range sectionRows(p, "education") {
		entry := store.ResumeEducation{
			ResumeID:    resumeID,
			Institution: row.String("institution"),
			Degree:      row.String("degree"),
			Field:       row.String("field"),
			StartYear:   row.Int("start_year"),
			EndYear:     row.Int("end_year"),
			Position:    i,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("resume education insert failed: %w", err)
		}
	}

	for i, row := range sectionRows(p, "experience") {
		entry := store.ResumeExperience{
			ResumeID:    resumeID,
			Company:     row.String("company"),
			Role:        row.String("role", "title"),
			Description: row.String("description"),
			StartDate:   row.String("start_date"),
			EndDate:     row.String("end_date"),
			Position:    i,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("resume experience insert failed: %w", err)
		}
	}

	for i, row := range sectionRows(p, "awards") {
		entry := store.ResumeAward{
			ResumeID: resumeID,
			Title:    row.String("title"),
			Issuer:   row.String("issuer"),
			Year:     row.Int("year"),
			Position: i,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("resume award insert failed: %w", err)
		}
	}

	for i, row := range sectionRows(p, "publications") {
		entry := store.ResumePublication{
			ResumeID: resumeID,
			Title:    row.String("title"),
			Venue:    row.String("venue"),
			Year:     row.Int("year"),
			URL:      row.String("url"),
			Position: i,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("resume publication insert failed: %w", err)
		}
	}

	for i, row := range sectionRows(p, "research") {
		entry := store.ResumeResearch{
			ResumeID:    resumeID,
			Topic:       row.String("topic", "title"),
			Description: row.String("description"),
			Position:    i,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("resume research insert failed: %w", err)
		}
	}

	return nil
}

func (m *resumeMapper) ExistingKeys(db *gorm.DB) ([]string, error) {
	var slugs []string
	err := db.Model(&store.Resume{}).Pluck("slug", &slugs).Error
	return slugs, err
}

func (m *resumeMapper) DeleteByKeys(tx *gorm.DB, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var ids []uint
	if err := tx.Model(&store.Resume{}).Where("slug IN ?", keys).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	owned := []any{
		&store.ResumeEducation{},
		&store.ResumeExperience{},
		&store.ResumeAward{},
		&store.ResumePublication{},
		&store.ResumeResearch{},
	}
	for _, model := range owned {
		if err := tx.Where("resume_id IN ?", ids).Delete(model).Error; err != nil {
			return 0, err
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&store.Resume{}).Error; err != nil {
		return 0, err
	}

	return len(ids), nil
}
