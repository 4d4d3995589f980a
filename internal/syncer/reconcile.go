package syncer

import (
	"strconv"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/report"
	"github.com/marcw/psync/internal/store"
	"github.com/marcw/psync/internal/util"
	"gorm.io/gorm"
)

// Reconciler deletes orphans: stored roots whose backing source file
// no longer appears in the current content scan. It runs after all
// live items have been upserted, in its own transaction, and is
// best-effort: a reconciliation failure is a warning, not a failed
// run.
type Reconciler struct {
	store  *store.Store
	logger *report.EventLogger
}

// NewReconciler returns a reconciler over the given store.
func NewReconciler(s *store.Store, logger *report.EventLogger) *Reconciler {
	if logger == nil {
		logger = report.NullLogger()
	}
	return &Reconciler{store: s, logger: logger}
}

// Run performs the per-kind set difference and deletes every orphan,
// dependents before roots. With dryRun set it counts would-be
// deletions without mutating anything.
func (r *Reconciler) Run(items []*content.Item, stats *Stats, dryRun bool) {
	live := liveKeys(items)

	if dryRun {
		for _, m := range Mappers() {
			orphans, err := r.orphansFor(r.store.DB(), m, live[m.Kind()])
			if err != nil {
				stats.AddWarning("reconciliation scan failed for %s: %v", m.Kind(), err)
				continue
			}
			for _, key := range orphans {
				r.logger.LogDelete(m.Kind(), key, true)
			}
			stats.Deleted += len(orphans)
		}
		return
	}

	err := r.store.Transaction(func(tx *gorm.DB) error {
		for _, m := range Mappers() {
			orphans, err := r.orphansFor(tx, m, live[m.Kind()])
			if err != nil {
				return err
			}
			if len(orphans) == 0 {
				continue
			}
			n, err := m.DeleteByKeys(tx, orphans)
			if err != nil {
				return err
			}
			for _, key := range orphans {
				r.logger.LogDelete(m.Kind(), key, false)
			}
			r.logger.Log(&report.Event{
				Level: report.LevelInfo,
				Event: report.EventReconcile,
				Kind:  m.Kind(),
				Extra: map[string]string{"deleted": strconv.Itoa(n)},
			})
			stats.Deleted += n
		}
		return nil
	})
	if err != nil {
		stats.AddWarning("reconciliation failed: %v", err)
		util.WarnLog("Reconciliation rolled back: %v", err)
	}
}

// orphansFor returns stored keys of m's kind with no backing source
// file. The key scan must go through db so callers inside a
// transaction do not block on a second connection; sqlite stores only
// ever hand out one.
func (r *Reconciler) orphansFor(db *gorm.DB, m Mapper, live map[string]struct{}) ([]string, error) {
	existing, err := m.ExistingKeys(db)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, key := range existing {
		if _, ok := live[key]; !ok {
			orphans = append(orphans, key)
		}
	}
	return orphans, nil
}

// liveKeys groups the natural keys currently backed by a source file
// per content kind. Translations contribute no key.
func liveKeys(items []*content.Item) map[string]map[string]struct{} {
	live := make(map[string]map[string]struct{}, len(content.Kinds))
	for _, kind := range content.Kinds {
		live[kind] = make(map[string]struct{})
	}
	for _, item := range items {
		m := MapperFor(item.Type)
		if m == nil {
			continue
		}
		p := content.NormalizePayload(item.Data)
		if key := m.NaturalKey(item, p); key != "" {
			live[item.Type][key] = struct{}{}
		}
	}
	return live
}
