// Package disk holds filesystem helpers shared by the savers: filename
// sanitization and the media scanner contract.
package disk

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxFilenameBytes is the longest filename BuildValidFilename produces. FAT
// allows 255 UCS-2 characters but files may end up on ext4 behind a FUSE
// layer, so 15 bytes are held back.
const MaxFilenameBytes = 240

// InvalidFilename is returned for names that are empty after trimming
const InvalidFilename = "(invalid)"

// MediaScanner tells the host media index that a file now exists at uri so
// other applications can see it. Implementations log their own failures.
type MediaScanner interface {
	ScanMedia(ctx context.Context, uri *url.URL)
}

// MediaScannerFunc adapts a function to MediaScanner
type MediaScannerFunc func(ctx context.Context, uri *url.URL)

func (f MediaScannerFunc) ScanMedia(ctx context.Context, uri *url.URL) {
	f(ctx, uri)
}

// BuildValidFilename mutates name into a valid FAT filename: characters FAT
// rejects become '_', leading and trailing dots and spaces are trimmed, and
// the result is capped at MaxFilenameBytes.
func BuildValidFilename(name string) string {
	name = strings.Trim(name, ". ")
	if name == "" {
		return InvalidFilename
	}

	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if isValidFatFilenameChar(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}

	return truncateUTF8(sb.String(), MaxFilenameBytes)
}

func isValidFatFilenameChar(r rune) bool {
	if r <= 0x1f || r == 0x7f || r == utf8.RuneError {
		return false
	}
	switch r {
	case '"', '*', '/', ':', '<', '>', '?', '\\', '|':
		return false
	}
	return true
}

// truncateUTF8 cuts s to at most n bytes on a rune boundary
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
