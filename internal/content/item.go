package content

import (
	"path/filepath"
	"strings"
	"time"
)

// Content kinds produced by the external parser. Each kind maps to one
// root entity in the store.
const (
	KindPost    = "post"
	KindProject = "project"
	KindIdea    = "idea"
	KindUpdate  = "update"
	KindResume  = "resume"
	KindEpisode = "episode"
)

// Kinds lists all supported content kinds in processing order.
var Kinds = []string{KindPost, KindProject, KindIdea, KindUpdate, KindResume, KindEpisode}

// FileInfo carries the filesystem facts the change detector needs.
type FileInfo struct {
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mtime"`
}

// Item is one parsed content file as handed in by the external parser.
// The item is read-only to the sync engine.
type Item struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Name         string         `json:"name"`
	Path         string         `json:"path"`
	RelativePath string         `json:"relative_path"`
	Hash         string         `json:"hash,omitempty"`
	Data         map[string]any `json:"data"`
	FileInfo     *FileInfo      `json:"file_info,omitempty"`
}

// ItemID derives the stable identifier for a content file: the kind,
// a colon, and the slash-normalized relative path. Stable across runs
// and across operating systems for an unchanged path.
func ItemID(kind, relativePath string) string {
	return kind + ":" + filepath.ToSlash(strings.TrimPrefix(relativePath, "./"))
}

// ModTime returns the source file's modification time, or the zero
// time when the parser supplied no file info.
func (it *Item) ModTime() time.Time {
	if it.FileInfo == nil {
		return time.Time{}
	}
	return it.FileInfo.ModTime
}

// CollectionDir returns the top-level directory of the item's relative
// path, used to group items into collections for sidecar propagation.
func (it *Item) CollectionDir() string {
	rel := filepath.ToSlash(it.RelativePath)
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return ""
}
