package csvimport

import (
	"path/filepath"
	"strings"
)

// Sheet is a decoded spreadsheet: normalised header keys plus data rows
type Sheet struct {
	Headers []string
	Rows    []*Row
}

// Row is one data row keyed by normalised header
type Row struct {
	LineNumber int
	Data       map[string]string
	RawFields  []string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[HeaderKey(header)]
}

// Lookup returns the first non-empty value among the given header aliases
func (r *Row) Lookup(headers ...string) string {
	for _, h := range headers {
		if v := r.Get(h); v != "" {
			return v
		}
	}
	return ""
}

// GetOrDefault returns the value for a column, or def if empty
func (r *Row) GetOrDefault(header, def string) string {
	if v := r.Get(header); v != "" {
		return v
	}
	return def
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// HasHeader reports whether the sheet has the column
func (s *Sheet) HasHeader(name string) bool {
	key := HeaderKey(name)
	for _, h := range s.Headers {
		if h == key {
			return true
		}
	}
	return false
}

// MissingHeaders returns the required columns the sheet lacks. Each entry
// may list aliases separated by "|".
func (s *Sheet) MissingHeaders(required ...string) []string {
	var missing []string
	for _, req := range required {
		found := false
		for _, alias := range strings.Split(req, "|") {
			if s.HasHeader(alias) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, strings.Split(req, "|")[0])
		}
	}
	return missing
}

// HeaderKey normalises a header cell: lower case, single spaces, trimmed
func HeaderKey(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// ReadSheet decodes an uploaded .xlsx or .csv file. maxRows <= 0 disables
// the row limit.
func ReadSheet(filename string, data []byte, maxRows int) (*Sheet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		sheet *Sheet
		err   error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		sheet, err = ReadXLSX(data)
	case ".csv", ".txt":
		sheet, err = readCSV(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	if maxRows > 0 && len(sheet.Rows) > maxRows {
		return nil, ErrFileTooLarge
	}
	return sheet, nil
}

func readCSV(data []byte) (*Sheet, error) {
	parser, err := ParseFromBytes(data, WithDelimiter(detectDelimiter(data)))
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}
	return &Sheet{Headers: parser.Headers(), Rows: rows}, nil
}

func buildHeaders(record []string) ([]string, map[string]int) {
	headers := make([]string, len(record))
	headerMap := make(map[string]int, len(record))
	for i, h := range record {
		key := HeaderKey(h)
		headers[i] = key
		if key == "" {
			continue
		}
		if _, dup := headerMap[key]; !dup {
			headerMap[key] = i
		}
	}
	return headers, headerMap
}

func newRow(line int, headers, record []string) *Row {
	row := &Row{
		LineNumber: line,
		Data:       make(map[string]string, len(headers)),
		RawFields:  record,
	}
	for i, header := range headers {
		if header == "" {
			continue
		}
		if _, set := row.Data[header]; set {
			continue
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row.Data[header] = value
	}
	return row
}

func trimTrailingEmpty(rows []*Row) []*Row {
	for len(rows) > 0 && rows[len(rows)-1].IsEmpty() {
		rows = rows[:len(rows)-1]
	}
	return rows
}
