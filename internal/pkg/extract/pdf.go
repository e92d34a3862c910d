package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/docqa/rag-backend/internal/entity"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var contentPageRe = regexp.MustCompile(`(\d+)\.txt$`)

// pdfText extracts text from a PDF. pdfcpu decodes the page content streams
// to disk; the text-showing operators (Tj, TJ, ', ") are then parsed out of
// the raw operator stream. Layout reconstruction is best-effort.
func pdfText(data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docqa-pdf-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inFile := filepath.Join(tmpDir, "document.pdf")
	if err := os.WriteFile(inFile, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}

	conf := api.LoadConfiguration()
	if err := api.ExtractContentFile(inFile, tmpDir, nil, conf); err != nil {
		return "", fmt.Errorf("%w: extract pdf content: %v", entity.ErrExtraction, err)
	}

	pages, err := contentFilesInPageOrder(tmpDir)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: pdf has no content streams", entity.ErrExtraction)
	}

	var sb strings.Builder
	for _, page := range pages {
		content, err := os.ReadFile(page)
		if err != nil {
			return "", fmt.Errorf("%w: read page content: %v", entity.ErrExtraction, err)
		}
		sb.WriteString(textFromContent(content))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// contentFilesInPageOrder lists the extracted per-page content files sorted
// numerically by page number.
func contentFilesInPageOrder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list extracted content: %v", entity.ErrExtraction, err)
	}

	type pageFile struct {
		path string
		nr   int
	}
	var pages []pageFile
	for _, e := range entries {
		m := contentPageRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		nr, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, pageFile{path: filepath.Join(dir, e.Name()), nr: nr})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].nr < pages[j].nr })

	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.path
	}
	return paths, nil
}

// textFromContent walks a decoded PDF content stream and collects the string
// operands of the text-showing operators.
func textFromContent(ops []byte) string {
	var out strings.Builder
	var pending []string

	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
	}

	i := 0
	for i < len(ops) {
		switch c := ops[i]; {
		case c == '(':
			s, next := parseLiteralString(ops, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(ops) && ops[i+1] != '<':
			s, next := parseHexString(ops, i)
			pending = append(pending, s)
			i = next
		case c == '%':
			for i < len(ops) && ops[i] != '\n' {
				i++
			}
		case c == '[' || c == ']' || c == '{' || c == '}' || c == '/' || c == '<' || c == '>':
			i++
		case c <= ' ':
			i++
		default:
			tok, next := readToken(ops, i)
			switch tok {
			case "Tj", "TJ":
				flush()
				out.WriteString(" ")
			case "'", "\"":
				out.WriteString("\n")
				flush()
			case "Td", "TD", "T*", "ET":
				out.WriteString("\n")
			}
			i = next
		}
	}

	return out.String()
}

func readToken(ops []byte, i int) (string, int) {
	start := i
	for i < len(ops) && ops[i] > ' ' && !strings.ContainsRune("()<>[]{}/%", rune(ops[i])) {
		i++
	}
	if i == start {
		return "", i + 1
	}
	return string(ops[start:i]), i
}

// parseLiteralString parses a (...) string handling escapes and balanced
// nested parentheses.
func parseLiteralString(ops []byte, i int) (string, int) {
	var sb strings.Builder
	depth := 1
	i++ // opening paren
	for i < len(ops) && depth > 0 {
		c := ops[i]
		switch c {
		case '\\':
			if i+1 >= len(ops) {
				i++
				continue
			}
			i++
			switch e := ops[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
				// ignore
			case '(', ')', '\\':
				sb.WriteByte(e)
			case '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for n := 0; n < 2 && i+1 < len(ops) && ops[i+1] >= '0' && ops[i+1] <= '7'; n++ {
						i++
						val = val*8 + int(ops[i]-'0')
					}
					sb.WriteRune(rune(val))
				} else {
					sb.WriteByte(e)
				}
			}
			i++
		case '(':
			depth++
			sb.WriteByte(c)
			i++
		case ')':
			depth--
			if depth > 0 {
				sb.WriteByte(c)
			}
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return printable(sb.String()), i
}

// parseHexString parses a <...> string. Two-byte big-endian sequences that
// decode to control characters are dropped; CID-keyed fonts are out of scope
// for best-effort extraction.
func parseHexString(ops []byte, i int) (string, int) {
	i++ // opening angle
	var hexDigits []byte
	for i < len(ops) && ops[i] != '>' {
		c := ops[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			hexDigits = append(hexDigits, c)
		}
		i++
	}
	i++ // closing angle

	if len(hexDigits)%2 == 1 {
		hexDigits = append(hexDigits, '0')
	}

	var sb strings.Builder
	for j := 0; j+1 < len(hexDigits); j += 2 {
		hi := hexVal(hexDigits[j])
		lo := hexVal(hexDigits[j+1])
		sb.WriteRune(rune(hi<<4 | lo))
	}
	return printable(sb.String()), i
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

// printable drops control runes that survive decoding
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}
