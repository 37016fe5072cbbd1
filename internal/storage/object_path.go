package storage

import (
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"
)

// sanitizePathSegment keeps ASCII letters, digits, dash and underscore.
// Case is preserved because bucket names such as semanticRenders are
// case-sensitive.
func sanitizePathSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch == '-', ch == '_':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

func normalizeExtension(ext string) string {
	trimmed := strings.TrimSpace(ext)
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return "bin"
	}
	return strings.ToLower(sanitizePathSegment(trimmed))
}

// buildObjectPath returns {category}/{base}.{ext}. Both segments are required
// so the same render always lands on the same key.
func buildObjectPath(category, baseName, ext string) (string, error) {
	category = sanitizePathSegment(category)
	if category == "" {
		return "", errors.New("storage: missing category")
	}
	base := sanitizeFileBase(baseName)
	if base == "" {
		return "", errors.New("storage: missing object name")
	}
	return path.Join(category, base+"."+normalizeExtension(ext)), nil
}

// splitObjectPath separates the leading category from the rest of the key.
func splitObjectPath(key string) (category, name string) {
	key = strings.TrimLeft(key, "/")
	idx := strings.Index(key, "/")
	if idx < 0 {
		return "", key
	}
	return key[:idx], key[idx+1:]
}

func detectContentType(ext string) string {
	normalized := normalizeExtension(ext)
	typeName := mime.TypeByExtension("." + normalized)
	if typeName == "" {
		return "application/octet-stream"
	}
	return typeName
}

func resolveContentType(opts SaveOptions) string {
	if ct := strings.TrimSpace(opts.ContentType); ct != "" {
		return ct
	}
	return detectContentType(opts.Extension)
}

func joinPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix == "" {
		return strings.TrimLeft(key, "/")
	}
	return path.Join(cleanPrefix, strings.TrimLeft(key, "/"))
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func sanitizeFileBase(value string) string {
	replaced := strings.ReplaceAll(strings.TrimSpace(value), " ", "-")
	sanitized := sanitizePathSegment(replaced)
	return strings.Trim(sanitized, "-_")
}

// joinPublicURL appends an object key to a base URL or path, escaping each
// key segment.
func joinPublicURL(base, key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	escaped := strings.Join(segments, "/")
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "/" + escaped
	}
	return base + "/" + escaped
}
