package asset

import (
	"encoding/base64"
	"strings"

	"github.com/h2non/filetype"

	"imgres/common"
	"imgres/names"
)

// Location is where image could be displayed from - either URL or inline
// base64 data. Zero value means "unknown".
type Location struct {
	kind  common.LocationKind
	value string
}

// URL creates URL location.
func URL(u string) Location {
	u = strings.TrimSpace(u)
	if len(u) == 0 {
		return Location{}
	}
	return Location{kind: common.LocationKindUrl, value: u}
}

// Inline creates inline location from base64 payload, "data:" URI prefix is
// dropped if present.
func Inline(data string) Location {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		if _, payload, found := strings.Cut(data, ","); found {
			data = payload
		}
	}
	if len(data) == 0 {
		return Location{}
	}
	return Location{kind: common.LocationKindInline, value: data}
}

func (l Location) Kind() common.LocationKind {
	return l.kind
}

func (l Location) Value() string {
	return l.value
}

func (l Location) IsZero() bool {
	return l.kind == common.LocationKindNone
}

func (l Location) IsInline() bool {
	return l.kind == common.LocationKindInline
}

// Source returns value usable as image source: URL as is, inline data as
// data URI with sniffed MIME type.
func (l Location) Source() string {
	switch l.kind {
	case common.LocationKindUrl:
		return l.value
	case common.LocationKindInline:
		return "data:" + InlineMimeType(l.value) + ";base64," + l.value
	default:
		return ""
	}
}

func (l Location) String() string {
	switch l.kind {
	case common.LocationKindInline:
		return "inline(" + InlineMimeType(l.value) + ")"
	case common.LocationKindUrl:
		return l.value
	default:
		return "<none>"
	}
}

// sniffing needs only first few hundred bytes
const sniffLen = 512

// InlineMimeType detects image type of base64 payload, falls back to PNG.
func InlineMimeType(b64 string) string {
	head := b64
	if n := base64.StdEncoding.DecodedLen(len(head)); n > sniffLen {
		head = head[:base64.StdEncoding.EncodedLen(sniffLen)]
	}
	data, err := base64.StdEncoding.DecodeString(head)
	if err != nil {
		// truncated or padded oddly - try raw
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(head, "=")); err != nil {
			return names.MimeType(names.DefaultFormat)
		}
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !strings.HasPrefix(kind.MIME.Value, "image/") {
		return names.MimeType(names.DefaultFormat)
	}
	return kind.MIME.Value
}
