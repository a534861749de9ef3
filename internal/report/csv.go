package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/reviewscan/internal/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Delimiter separates CSV fields. Review text often contains commas.
const Delimiter = ';'

var (
	// ErrMissingColumns is returned when a CSV lacks expected header columns.
	ErrMissingColumns = errors.New("missing columns")

	// ErrEmptyCSV is returned when a CSV has no header.
	ErrEmptyCSV = errors.New("empty csv")
)

// WriteCSV writes rows as the review artifact: a header line followed by
// one line per row, semicolon-delimited, UTF-8 with a byte order mark.
func WriteCSV(w io.Writer, rows []model.OutputRow) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	cw.Comma = Delimiter

	if err := cw.Write(model.CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return tw.Close()
}

// CSVData is a parsed review artifact.
type CSVData struct {
	// Columns is the header as found in the file.
	Columns []string

	// Rows holds the artifact columns of each line. Link, ReviewIndex and
	// Language are not part of the artifact and stay zero.
	Rows []model.OutputRow

	// Encoding names the text encoding the file was decoded with.
	Encoding string
}

// ReadCSV parses a review artifact. A leading byte order mark is stripped.
// Files that are not valid UTF-8 are decoded as Windows-1252. Extra
// columns are ignored; a missing expected column is ErrMissingColumns.
func ReadCSV(r io.Reader) (*CSVData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	var (
		dec  encoding.Encoding = unicode.UTF8BOM
		name                   = "utf-8"
	)
	if !utf8.Valid(raw) {
		dec = charmap.Windows1252
		name = "windows-1252"
	} else if bytes.HasPrefix(raw, []byte("\xEF\xBB\xBF")) {
		name = "utf-8-sig"
	}

	cr := csv.NewReader(transform.NewReader(bytes.NewReader(raw), dec.NewDecoder()))
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	data := &CSVData{Columns: header, Encoding: name}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		data.Rows = append(data.Rows, rowFromRecord(record, index))
	}
	return data, nil
}

// columnIndex maps each expected column to its position in header.
func columnIndex(header []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}

	index := make([]int, len(model.CSVHeader))
	var missing []string
	for i, col := range model.CSVHeader {
		p, ok := pos[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		index[i] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (found: %s)", ErrMissingColumns,
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}
	return index, nil
}

func rowFromRecord(record []string, index []int) model.OutputRow {
	field := func(i int) string {
		if index[i] < len(record) {
			return record[index[i]]
		}
		return ""
	}
	return model.OutputRow{
		Organization:    field(0),
		City:            field(1),
		LocationName:    field(2),
		LocationAddress: field(3),
		LocationRating:  field(4),
		ReviewText:      field(5),
		ReviewDate:      field(6),
	}
}
