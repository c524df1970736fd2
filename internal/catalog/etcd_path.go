package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

type entryKind string

const (
	kindType    entryKind = "types"
	kindTenant  entryKind = "tenants"
	kindPurpose entryKind = "purposes"
	kindStatus  entryKind = "statuses"
)

func (k entryKind) isValid() bool {
	switch k {
	case kindType, kindTenant, kindPurpose, kindStatus:
		return true
	}
	return false
}

func keyPrefix(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/"
}

// entryKey builds <prefix>/<kind>/<escaped id>.
func entryKey(prefix string, kind entryKind, id string) string {
	return fmt.Sprintf("%s%s/%s", keyPrefix(prefix), kind, url.PathEscape(id))
}

// parseEntryKey is the inverse of entryKey.
func parseEntryKey(prefix, key string) (entryKind, string, error) {
	rest, ok := strings.CutPrefix(key, keyPrefix(prefix))
	if !ok {
		return "", "", fmt.Errorf("key %s is outside prefix %s", key, prefix)
	}
	kindStr, escaped, ok := strings.Cut(rest, "/")
	if !ok || escaped == "" {
		return "", "", fmt.Errorf("malformed catalog key %s", key)
	}
	kind := entryKind(kindStr)
	if !kind.isValid() {
		return "", "", fmt.Errorf("unknown catalog kind %q in key %s", kindStr, key)
	}
	id, err := url.PathUnescape(escaped)
	if err != nil {
		return "", "", fmt.Errorf("malformed catalog key %s: %w", key, err)
	}
	return kind, id, nil
}
