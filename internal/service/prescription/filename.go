package prescription

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxFilenameBytes bounds the sanitized name so that "<uuid>_<name>" fits
// both the 255-byte file name limit and the image_path column.
const maxFilenameBytes = 200

// SecureFilename reduces name to ASCII letters, digits, dots, dashes and
// underscores with no directory part. The result always ends in ext and is
// at most maxFilenameBytes long.
func SecureFilename(name, ext string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)

	var sb strings.Builder
	for _, r := range strings.Join(strings.Fields(name), "_") {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
		case r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	clean := strings.Trim(sb.String(), "._")

	ext = strings.ToLower(ext)
	if clean == "" || strings.EqualFold(clean, strings.TrimPrefix(ext, ".")) {
		clean = "image" + ext
	}
	if !strings.HasSuffix(strings.ToLower(clean), ext) {
		clean += ext
	}
	if len(clean) > maxFilenameBytes {
		// clean is ASCII, so byte slicing keeps it valid.
		suffix := clean[len(clean)-len(ext):]
		stem := strings.TrimRight(clean[:maxFilenameBytes-len(ext)], "._-")
		if stem == "" {
			stem = "image"
		}
		clean = stem + suffix
	}
	return clean
}

// extension returns the lower-cased extension of name without the dot.
func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
