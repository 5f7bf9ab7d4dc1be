package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spoolgate/backend/internal/domain/printing"
)

const (
	randomSuffixBytes = 8
	maxStemLength     = 64
	fallbackStem      = "document"
)

var (
	// {stem}_{unixMillis}_{16 hex}{ext}
	storedNamePattern = regexp.MustCompile(`^(.*)_(\d+)_([0-9a-f]{16})(\.[a-z0-9]{1,8})?$`)
	extPattern        = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// generateFileName builds the on-disk name for an upload.
func generateFileName(originalName string, now time.Time) (string, error) {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := filepath.Ext(base)
	stem := sanitizeStem(strings.TrimSuffix(base, ext))

	ext = strings.ToLower(ext)
	if !extPattern.MatchString(ext) {
		ext = ""
	}

	suffix := make([]byte, randomSuffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}

	return fmt.Sprintf("%s_%d_%s%s", stem, now.UnixMilli(), hex.EncodeToString(suffix), ext), nil
}

// sanitizeStem folds the name to ASCII and replaces anything outside
// [A-Za-z0-9._-] with an underscore. Leading dots are dropped.
func sanitizeStem(stem string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, stem)
	if err != nil {
		folded = stem
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxStemLength {
			break
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if strings.Trim(out, "_") == "" {
		return fallbackStem
	}
	return out
}

// displayNameFromStored recovers a presentable name from a stored file name
// by removing the timestamp and random suffix.
func displayNameFromStored(stored string) string {
	m := storedNamePattern.FindStringSubmatch(stored)
	if m == nil {
		return stored
	}
	return m[1] + m[4]
}

// mediaTypeFromName maps a stored file name back to its media type.
func mediaTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ps", ".eps":
		return printing.MediaTypePostScript
	default:
		return printing.ContentTypeForName(name)
	}
}
