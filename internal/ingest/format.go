// Package ingest implements Snapbase's format-agnostic readers: every
// supported source format converges on a columnar.Table that the snapshot
// store then writes as data.parquet in a single pass.
package ingest

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/snapbase/snapbase/internal/snaperr"
)

// Format identifies one of the source formats the dispatcher recognizes.
type Format string

const (
	FormatCSV        Format = "csv"
	FormatTSV        Format = "tsv"
	FormatJSON       Format = "json"
	FormatNDJSON     Format = "ndjson"
	FormatParquet    Format = "parquet"
	FormatSpreadsheet Format = "spreadsheet"
	FormatSQLScript  Format = "sql"
)

// DetectFormat dispatches on file extension first, falling back to a
// content sniff for the ambiguous delimited/JSON cases.
func DetectFormat(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(lower, ".tsv"):
		return FormatTSV, nil
	case strings.HasSuffix(lower, ".ndjson"), strings.HasSuffix(lower, ".jsonl"):
		return FormatNDJSON, nil
	case strings.HasSuffix(lower, ".json"):
		return sniffJSONVariant(path)
	case strings.HasSuffix(lower, ".parquet"):
		return FormatParquet, nil
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return FormatSpreadsheet, nil
	case strings.HasSuffix(lower, ".sql"):
		return FormatSQLScript, nil
	default:
		return "", snaperr.NewUnsupportedFormat("cannot determine ingestion format for %q", path)
	}
}

// sniffJSONVariant distinguishes a single JSON document/array (FormatJSON)
// from newline-delimited JSON records (FormatNDJSON) by inspecting the
// first non-whitespace byte of each of the first two lines.
func sniffJSONVariant(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", snaperr.NewStorageUnavailable(err, "open %q to sniff format", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var firstLines []string
	for len(firstLines) < 2 && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		firstLines = append(firstLines, line)
	}
	if len(firstLines) >= 2 {
		// Two separate top-level JSON values on their own lines is the
		// signature of NDJSON; a single JSON document never looks like
		// this because array/object brackets span multiple lines.
		if looksLikeJSONValue(firstLines[0]) && looksLikeJSONValue(firstLines[1]) {
			return FormatNDJSON, nil
		}
	}
	return FormatJSON, nil
}

func looksLikeJSONValue(line string) bool {
	if line == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	switch r {
	case '{', '[':
		return strings.HasSuffix(line, "}") || strings.HasSuffix(line, "]") || strings.HasSuffix(line, "},") || strings.HasSuffix(line, "],")
	}
	return false
}

// sniffDelimiter inspects the header line to choose between comma and tab
// delimiters when a .csv file is actually tab-separated or vice versa.
func sniffDelimiter(header []byte, fallback rune) rune {
	if bytes.ContainsRune(header, '\t') && !bytes.ContainsRune(header, ',') {
		return '\t'
	}
	return fallback
}
