package survey

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	errInvalidUTF8 = errors.New("source is not valid utf-8")
	errNoHeader    = errors.New("source has no header row")
)

// decoding is one attempt in the ordered encoding fallback.
type decoding struct {
	name   string
	decode func([]byte) ([]byte, error)
}

var decodings = []decoding{
	{name: "utf-8-sig", decode: decodeUTF8BOM},
	{name: "utf-8", decode: decodeUTF8},
	{name: "latin-1", decode: decodeLatin1},
}

func decodeUTF8BOM(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}
	return unicode.UTF8BOM.NewDecoder().Bytes(data)
}

func decodeUTF8(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}
	return data, nil
}

func decodeLatin1(data []byte) ([]byte, error) {
	return charmap.ISO8859_1.NewDecoder().Bytes(data)
}

// LoadReport summarizes what a load did to the raw export.
type LoadReport struct {
	Encoding      string
	Rows          int
	Columns       int
	RatingColumns []string
	MissingLabels []string
	ProgramAlias  string
}

// Loader turns raw CSV bytes into a normalized Table.
type Loader struct {
	fields  Fields
	program *ProgramNormalizer
	matcher Matcher
	logger  *slog.Logger
}

// NewLoader constructs a loader.
func NewLoader(fields Fields, rules ProgramRules, matcher Matcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fields:  fields.withDefaults(),
		program: NewProgramNormalizer(rules.withDefaults()),
		matcher: matcher,
		logger:  logger.With("component", "survey.loader"),
	}
}

// Parse decodes the export, cleans headers, aliases the program column,
// derives normalized siblings, and coerces every catalog rating column to
// numbers. Only an undecodable source is an error.
func (l *Loader) Parse(data []byte, catalog Catalog) (*Table, LoadReport, error) {
	header, records, encoding, err := decodeCSV(data)
	if err != nil {
		return nil, LoadReport{}, err
	}

	columns := cleanHeader(header)
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = TextCell(rec[i])
			}
		}
		rows = append(rows, row)
	}
	table := NewTable(columns, rows)
	sum := sha256.Sum256(data)
	table.Fingerprint = hex.EncodeToString(sum[:])
	table.Encoding = encoding

	report := LoadReport{Encoding: encoding}

	resolution := l.matcher.Resolve(catalog.Labels(), columns)
	rating := make(map[string]struct{}, len(resolution.Matches))
	for _, m := range resolution.Matches {
		coerceNumeric(table, m.Column)
		rating[m.Column] = struct{}{}
		report.RatingColumns = append(report.RatingColumns, m.Column)
	}
	report.MissingLabels = resolution.Missing

	report.ProgramAlias = l.aliasProgram(table, rating)
	l.deriveNormalized(table)

	report.Rows = table.Len()
	report.Columns = len(table.Columns)
	return table, report, nil
}

func decodeCSV(data []byte) ([]string, [][]string, string, error) {
	var lastErr error
	for _, d := range decodings {
		decoded, err := d.decode(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", d.name, err)
			continue
		}
		header, records, err := readCSV(decoded)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", d.name, err)
			continue
		}
		return header, records, d.name, nil
	}
	return nil, nil, "", fmt.Errorf("decode survey source: %w", lastErr)
}

func readCSV(data []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errNoHeader
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read records: %w", err)
	}
	return header, records, nil
}

// cleanHeader strips BOM debris and whitespace, names blank headers, and
// suffixes repeated names with .1, .2, ...
func cleanHeader(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.ReplaceAll(h, "\ufeff", ""))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		columns[i] = name
	}
	return columns
}

func coerceNumeric(t *Table, column string) {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return
	}
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		row[idx] = parseRating(row[idx].Raw)
	}
}

// parseRating turns a raw answer into a numeric cell; anything that is not
// a finite number becomes the missing marker.
func parseRating(raw string) Cell {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Cell{Raw: raw, Numeric: true}
	}
	return Cell{Raw: raw, Present: true, Numeric: true, Number: v}
}

// aliasProgram makes sure a canonical program column exists. It returns the
// source column when one had to be borrowed.
func (l *Loader) aliasProgram(t *Table, rating map[string]struct{}) string {
	if t.HasColumn(l.fields.Program) {
		return ""
	}
	source := ""
	for _, col := range t.Columns {
		if strings.EqualFold(col, l.fields.Program) {
			source = col
			break
		}
	}
	if source == "" {
		for _, col := range t.Columns {
			if _, isRating := rating[col]; isRating {
				continue
			}
			if containsAny(strings.ToLower(col), l.fields.ProgramAliases) {
				source = col
				break
			}
		}
	}
	if source == "" {
		return ""
	}
	appendColumn(t, l.fields.Program, func(row Row) Cell {
		return t.cellOf(row, source)
	})
	return source
}

func (l *Loader) deriveNormalized(t *Table) {
	if t.HasColumn(l.fields.Program) {
		src := l.fields.Program
		appendColumn(t, NormalizedColumn(src), func(row Row) Cell {
			cell := t.cellOf(row, src)
			if !cell.Present {
				return MissingCell()
			}
			v, ok := l.program.Normalize(cell.Raw)
			if !ok {
				return MissingCell()
			}
			return Cell{Raw: v, Present: true}
		})
	}
	if t.HasColumn(l.fields.Age) {
		src := l.fields.Age
		appendColumn(t, NormalizedColumn(src), func(row Row) Cell {
			cell := t.cellOf(row, src)
			if !cell.Present {
				return MissingCell()
			}
			v, ok := NormalizeAge(cell.Raw)
			if !ok {
				return MissingCell()
			}
			return Cell{Raw: v, Present: true}
		})
	}
	if t.HasColumn(l.fields.Gender) {
		src := l.fields.Gender
		appendColumn(t, NormalizedColumn(src), func(row Row) Cell {
			cell := t.cellOf(row, src)
			raw := ""
			if cell.Present {
				raw = cell.Raw
			}
			return Cell{Raw: NormalizeGender(raw), Present: true}
		})
	}
}

// appendColumn adds a derived column; rows are extended in place, which is
// safe only while the table is still private to the loader.
func appendColumn(t *Table, name string, derive func(Row) Cell) {
	if t.HasColumn(name) {
		return
	}
	for i, row := range t.Rows {
		t.Rows[i] = append(row, derive(row))
	}
	t.Columns = append(t.Columns, name)
	t.reindex()
}

func (t *Table) cellOf(row Row, column string) Cell {
	idx, ok := t.ColumnIndex(column)
	if !ok || idx >= len(row) {
		return MissingCell()
	}
	return row[idx]
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Load fetches the dataset's raw export and parses it.
func (l *Loader) Load(ctx context.Context, source Source, ds Dataset) (*Table, error) {
	data, err := source.Fetch(ctx, ds.Source)
	if err != nil {
		return nil, fmt.Errorf("read %s source %q: %w", ds.Source.Driver, ds.Source.Location, err)
	}
	table, report, err := l.Parse(data, ds.Catalog)
	if err != nil {
		return nil, err
	}
	l.logger.Info("survey dataset loaded",
		"dataset", ds.Name,
		"encoding", report.Encoding,
		"rows", report.Rows,
		"columns", report.Columns,
		"rating_columns", len(report.RatingColumns),
		"program_alias", report.ProgramAlias,
	)
	if len(report.MissingLabels) > 0 {
		l.logger.Warn("catalog labels missing from source", "dataset", ds.Name, "labels", report.MissingLabels)
	}
	return table, nil
}
