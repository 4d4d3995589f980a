package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// maxHashDepth bounds recursion into nested structures. Anything
	// deeper is summarized by its Go type name.
	maxHashDepth = 3

	// maxHashElems bounds how many elements of a list contribute to
	// the digest.
	maxHashElems = 20
)

// excludedHashKeys carry duplicated or non-deterministic substructure
// and never contribute to the digest.
var excludedHashKeys = map[string]struct{}{
	"metadata":    {},
	"main_entity": {},
	"file_info":   {},
}

// HashPayload computes a stable sha256 digest over an item's data map.
// Map keys are visited in sorted order so insertion order never
// changes the digest.
func HashPayload(data map[string]any) (string, error) {
	var b strings.Builder
	if err := writeCanonical(&b, data, 0); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}

// HashPayloadOrFallback is HashPayload with the availability fallback:
// if canonicalization fails, a timestamp-seeded digest is produced
// instead. The fallback digest differs on every call, so the item will
// be re-synced on each run until the payload serializes again.
func HashPayloadOrFallback(data map[string]any) string {
	h, err := HashPayload(data)
	if err == nil {
		return h
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("fallback:%d", time.Now().UnixNano())))
	return hex.EncodeToString(sum[:])
}

// CollectionHash aggregates child hashes into one collection-level
// digest: sha256 of the sorted, concatenated child hashes.
func CollectionHash(childHashes []string) string {
	sorted := make([]string, len(childHashes))
	copy(sorted, childHashes)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "")))
	return hex.EncodeToString(sum[:])
}

func writeCanonical(b *strings.Builder, v any, depth int) error {
	if depth > maxHashDepth {
		fmt.Fprintf(b, "<%T>", v)
		return nil
	}

	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			if _, skip := excludedHashKeys[k]; skip {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			if err := writeCanonical(b, val[k], depth+1); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, e := range val {
			if i >= maxHashElems {
				fmt.Fprintf(b, ",+%d", len(val)-maxHashElems)
				break
			}
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, e, depth+1); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case []string:
		b.WriteByte('[')
		for i, e := range val {
			if i >= maxHashElems {
				fmt.Fprintf(b, ",+%d", len(val)-maxHashElems)
				break
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(e)
		}
		b.WriteByte(']')
	case string:
		b.WriteString(val)
	case time.Time:
		b.WriteString(val.UTC().Format(time.RFC3339))
	default:
		// Scalars and anything else go through the JSON encoder;
		// unencodable values surface as an error so the caller can
		// take the fallback path.
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("canonicalize %T: %w", val, err)
		}
		b.Write(enc)
	}
	return nil
}
