package extract

import "unicode/utf8"

// plainText decodes txt/md bytes as UTF-8, falling back to Latin-1 for
// legacy files that fail UTF-8 validation.
func plainText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}
