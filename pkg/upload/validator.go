package upload

import (
	"fmt"
	"strings"

	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
)

// Policy constrains what an upload context accepts. AllowedTypes entries are
// exact MIME types or a family wildcard such as "image/*".
type Policy struct {
	AllowedTypes []string
	MaxBytes     int64
}

// DefaultPolicy is shared by all content kinds unless a caller overrides it.
func DefaultPolicy() Policy {
	return Policy{
		AllowedTypes: []string{"image/*"},
		MaxBytes:     5 * 1024 * 1024,
	}
}

// Meta describes an upload without touching its bytes.
type Meta struct {
	MimeType  string
	SizeBytes int64
}

// Validate checks upload metadata against the policy. It returns nil when the
// upload is accepted, ErrInvalidAttachment when no allowed type matches, and
// ErrAttachmentTooLarge when the declared size exceeds the limit. The type
// check is independent of the size check so the two rejections never overlap.
func Validate(meta Meta, policy Policy) error {
	if !typeAllowed(meta.MimeType, policy.AllowedTypes) {
		return appErrors.Clone(appErrors.ErrInvalidAttachment,
			fmt.Sprintf("mime type %q is not allowed", meta.MimeType))
	}
	if policy.MaxBytes > 0 && meta.SizeBytes > policy.MaxBytes {
		return appErrors.Clone(appErrors.ErrAttachmentTooLarge,
			fmt.Sprintf("file exceeds %d bytes limit", policy.MaxBytes))
	}
	return nil
}

func typeAllowed(mimeType string, allowed []string) bool {
	normalized := normalizeMime(mimeType)
	if normalized == "" {
		return false
	}
	for _, entry := range allowed {
		entry = normalizeMime(entry)
		if entry == "" {
			continue
		}
		if family, ok := strings.CutSuffix(entry, "/*"); ok {
			if strings.HasPrefix(normalized, family+"/") {
				return true
			}
			continue
		}
		if normalized == entry {
			return true
		}
	}
	return false
}

// normalizeMime lowercases and strips any parameters ("image/png; charset=x").
func normalizeMime(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if idx := strings.IndexByte(raw, ';'); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	return raw
}
