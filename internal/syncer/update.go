package syncer

import (
	"fmt"
	"time"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"gorm.io/gorm"
)

// updateMapper handles timeline updates. Their natural key is the
// (title, date) pair, rendered as "title|YYYY-MM-DD" wherever a
// single key string is needed.
type updateMapper struct{}

func (m *updateMapper) Kind() string { return content.KindUpdate }

func updateKey(title string, date time.Time) string {
	return title + "|" + date.UTC().Format("2006-01-02")
}

func (m *updateMapper) NaturalKey(item *content.Item, p content.Payload) string {
	return updateKey(p.String("title"), p.Time("date"))
}

func (m *updateMapper) Lookup(db *gorm.DB, key string) (*ExistingRoot, error) {
	row, err := m.find(db, key)
	if err != nil || row == nil {
		return nil, err
	}
	return &ExistingRoot{
		UpdatedAt: row.UpdatedAt,
		Fields: map[string]string{
			"title":       row.Title,
			"description": row.Description,
		},
	}, nil
}

// find resolves a rendered key back to its row. The date half is
// compared on the calendar day to stay engine-agnostic about how
// timestamps round-trip.
func (m *updateMapper) find(db *gorm.DB, key string) (*store.TimelineUpdate, error) {
	title, day, ok := splitUpdateKey(key)
	if !ok {
		return nil, nil
	}

	var rows []store.TimelineUpdate
	if err := db.Where("title = ?", title).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Date.UTC().Format("2006-01-02") == day {
			return &rows[i], nil
		}
	}
	return nil, nil
}

func splitUpdateKey(key string) (title, day string, ok bool) {
	i := len(key) - len("|2006-01-02")
	if i < 0 || key[i] != '|' {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

func (m *updateMapper) Upsert(tx *gorm.DB, item *content.Item, p content.Payload, ownerID uint, stats *Stats) error {
	title := p.String("title")
	date := p.Time("date")
	if title == "" || date.IsZero() {
		return fmt.Errorf("timeline update needs a title and a date")
	}

	existing, err := m.find(tx, updateKey(title, date))
	if err != nil {
		return err
	}

	row := existing
	if row == nil {
		row = &store.TimelineUpdate{OwnerID: ownerID, Title: title, Date: date.UTC()}
	}

	row.Description = substantialValue(p, "description")
	row.Category = p.String("category")
	row.Icon = p.String("icon")
	row.UpdatedAt = touch()

	if existing == nil {
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("timeline update create failed: %w", err)
		}
		stats.Created++
	} else {
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("timeline update save failed: %w", err)
		}
		stats.Updated++
	}
	return nil
}

func (m *updateMapper) ExistingKeys(db *gorm.DB) ([]string, error) {
	var rows []store.TimelineUpdate
	if err := db.Select("title", "date").Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, updateKey(r.Title, r.Date))
	}
	return keys, nil
}

func (m *updateMapper) DeleteByKeys(tx *gorm.DB, keys []string) (int, error) {
	deleted := 0
	for _, key := range keys {
		row, err := m.find(tx, key)
		if err != nil {
			return deleted, err
		}
		if row == nil {
			continue
		}
		if err := tx.Delete(row).Error; err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
