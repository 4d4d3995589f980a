// Package sidecar propagates sync provenance into on-disk metadata
// files: each synced item's hash and timestamp land in the sidecar
// next to its source file, and every collection directory gets an
// aggregate hash of its children, so callers can answer "did anything
// in this collection change" without re-scanning every child.
package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/util"
	"gopkg.in/yaml.v3"
)

// CollectionFile is the name of the per-collection sidecar inside
// each top-level content-type directory.
const CollectionFile = "collection.meta.yaml"

// syncStatusSynced marks a sidecar whose item was written this run.
const syncStatusSynced = "synced"

// Propagator writes sync metadata into sidecar files under Root.
// Missing sidecars are silently skipped: a content tree is free to
// opt out per file or entirely.
type Propagator struct {
	Root string
}

// Propagate updates the per-item sidecars for every item with a
// computed hash, then aggregates child hashes into each collection
// sidecar. Returns warnings for sidecars that exist but could not be
// updated.
func (p Propagator) Propagate(items []*content.Item, hashes map[string]string, now time.Time) []string {
	var warnings []string
	updated := 0

	byCollection := make(map[string][]string)

	for _, item := range items {
		hash, ok := hashes[item.ID]
		if !ok {
			continue
		}

		if dir := item.CollectionDir(); dir != "" {
			byCollection[dir] = append(byCollection[dir], hash)
		}

		ok, err := updateSidecar(itemSidecarPath(item.Path), hash, now)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sidecar update failed for %s: %v", item.RelativePath, err))
			continue
		}
		if ok {
			updated++
		}
	}

	for dir, childHashes := range byCollection {
		path := filepath.Join(p.Root, dir, CollectionFile)
		ok, err := updateSidecar(path, content.CollectionHash(childHashes), now)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("collection sidecar update failed for %s: %v", dir, err))
			continue
		}
		if ok {
			updated++
		}
	}

	util.DebugLog("Updated %d sidecar file(s)", updated)
	return warnings
}

// itemSidecarPath returns the sidecar adjacent to a source file:
// the file's extension replaced with .meta.yaml.
func itemSidecarPath(srcPath string) string {
	return strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ".meta.yaml"
}

// updateSidecar rewrites the sync_metadata block of one sidecar,
// preserving every other key in the document. A missing file reports
// (false, nil).
func updateSidecar(path, hash string, now time.Time) (bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	doc := map[string]any{}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return false, fmt.Errorf("unparseable sidecar: %w", err)
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	doc["sync_metadata"] = map[string]any{
		"last_hash":      hash,
		"last_sync_date": now.UTC().Format(time.RFC3339),
		"sync_status":    syncStatusSynced,
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return false, err
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return false, err
	}
	return true, nil
}
