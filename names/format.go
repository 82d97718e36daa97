package names

import (
	"strings"
)

// DefaultFormat is used when format cannot be determined.
const DefaultFormat = "png"

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"avif": "image/avif",
	"tiff": "image/tiff",
	"ico":  "image/x-icon",
}

var formatAliases = map[string]string{
	"jpeg":               "jpg",
	"pjpeg":              "jpg",
	"svg+xml":            "svg",
	"tif":                "tiff",
	"x-icon":             "ico",
	"vnd.microsoft.icon": "ico",
	"x-ms-bmp":           "bmp",
}

// NormalizeFormat turns file extension or MIME type into known image format.
// Second value is false for anything which is not a supported image format.
func NormalizeFormat(f string) (string, bool) {
	f = strings.ToLower(strings.TrimSpace(f))
	f = strings.TrimPrefix(f, ".")
	f = strings.TrimPrefix(f, "image/")
	if i := strings.IndexByte(f, ';'); i >= 0 {
		f = strings.TrimSpace(f[:i])
	}
	if alias, ok := formatAliases[f]; ok {
		f = alias
	}
	if _, ok := mimeTypes[f]; ok {
		return f, true
	}
	return "", false
}

// IsImageFormat reports whether token names supported image format.
func IsImageFormat(token string) bool {
	_, ok := NormalizeFormat(token)
	return ok
}

// FormatOrDefault normalizes format falling back to DefaultFormat.
func FormatOrDefault(f string) string {
	if n, ok := NormalizeFormat(f); ok {
		return n
	}
	return DefaultFormat
}

// MimeType returns MIME type for a format, "image/png" for unknown ones.
func MimeType(format string) string {
	return mimeTypes[FormatOrDefault(format)]
}

// SplitNameAndFormat splits file name on the last dot. Format is normalized,
// when suffix is not a supported image format whole name is the base and
// format falls back to DefaultFormat.
func SplitNameAndFormat(filename string) (base, format string) {
	filename = strings.TrimSpace(filename)
	i := strings.LastIndexByte(filename, '.')
	if i <= 0 || i == len(filename)-1 {
		return filename, DefaultFormat
	}
	if f, ok := NormalizeFormat(filename[i+1:]); ok {
		return filename[:i], f
	}
	return filename, DefaultFormat
}

// StripImageExtension returns name without recognized image extension and
// true if there was one to strip: "smile.PNG" -> "smile".
func StripImageExtension(name string) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || !IsImageFormat(name[i+1:]) {
		return name, false
	}
	return strings.TrimSpace(name[:i]), true
}

// FormatFromMime returns image format for MIME type, ok is false for
// non-image types.
func FormatFromMime(mime string) (string, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if !strings.HasPrefix(mime, "image/") {
		return "", false
	}
	return NormalizeFormat(mime)
}
