package ingest

import (
	"bufio"
	"os"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/snaperr"
)

// ReadFile detects path's format and dispatches to the matching reader,
// converging every supported source format on a single columnar.Table.
// SQL-script and live-database sources are read through ReadSQLScript and
// ReadDatabaseTables instead, since those need an open *sql.DB rather than
// a path.
func ReadFile(path string) (*columnar.Table, Format, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case FormatCSV, FormatTSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, format, snaperr.NewStorageUnavailable(err, "open %q", path)
		}
		defer f.Close()

		fallback := ','
		if format == FormatTSV {
			fallback = '\t'
		}
		header, err := peekLine(f)
		if err != nil {
			return nil, format, err
		}
		table, err := ReadCSV(f, sniffDelimiter(header, fallback))
		return table, format, err

	case FormatJSON:
		f, err := os.Open(path)
		if err != nil {
			return nil, format, snaperr.NewStorageUnavailable(err, "open %q", path)
		}
		defer f.Close()
		table, err := ReadJSON(f, false)
		return table, format, err

	case FormatNDJSON:
		f, err := os.Open(path)
		if err != nil {
			return nil, format, snaperr.NewStorageUnavailable(err, "open %q", path)
		}
		defer f.Close()
		table, err := ReadJSON(f, true)
		return table, format, err

	case FormatSpreadsheet:
		table, err := ReadSpreadsheet(path)
		return table, format, err

	case FormatParquet:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, format, snaperr.NewStorageUnavailable(err, "read %q", path)
		}
		table, err := columnar.ReadParquetInferSchema(data)
		return table, format, err

	default:
		return nil, format, snaperr.NewUnsupportedFormat("no file-based reader wired for format %q", format)
	}
}

// peekLine reads the header line from f for delimiter sniffing, then seeks
// back so the real reader still sees the full file from the start.
func peekLine(f *os.File) ([]byte, error) {
	reader := bufio.NewReader(f)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, snaperr.NewStorageUnavailable(err, "rewind after sniffing delimiter")
	}
	return line, nil
}
