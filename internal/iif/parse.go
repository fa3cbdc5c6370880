package iif

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dimchansky/utfbom"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
)

// ParseError reports malformed IIF input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("iif line %d: %s", e.Line, e.Msg)
}

// Row is one data line of a section, keyed by the section's column names.
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of column.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// Section is a "!NAME" header line and the data rows following it.
type Section struct {
	Name    string
	Columns []string
	Rows    []Row
}

// File is a parsed IIF file.
type File struct {
	Sections map[string]*Section
	Order    []string // section names in order of first appearance
}

// Section returns the named section, or nil.
func (f *File) Section(name string) *Section {
	return f.Sections[name]
}

// Parser reads IIF files.
type Parser struct {
	Log zerolog.Logger
}

// Parse reads an IIF file with a silent logger.
func Parse(r io.Reader) (*File, error) {
	p := Parser{Log: zerolog.Nop()}
	return p.Parse(r)
}

// Parse splits r into sections. Input may carry a UTF-8 byte order mark;
// input that is not valid UTF-8 is decoded as Windows-1252, which is what
// QuickBooks Desktop writes. Rows shorter than their header are padded,
// longer rows are truncated.
func (p *Parser) Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return nil, fmt.Errorf("reading iif: %w", err)
	}
	if !utf8.Valid(data) {
		p.Log.Debug().Msg("input is not valid UTF-8, decoding as Windows-1252")
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("decoding iif: %w", err)
		}
	}

	f := &File{Sections: make(map[string]*Section)}
	var cur *Section

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, "\t")

		if strings.HasPrefix(values[0], "!") {
			name := strings.TrimSpace(values[0][1:])
			if name == "" {
				return nil, &ParseError{Line: lineNo, Msg: "header without a section name"}
			}
			columns := make([]string, len(values))
			columns[0] = name
			for i, v := range values[1:] {
				columns[i+1] = strings.TrimSpace(v)
			}
			// A repeated header replaces the column layout but keeps the rows.
			if s, ok := f.Sections[name]; ok {
				s.Columns = columns
				cur = s
			} else {
				cur = &Section{Name: name, Columns: columns}
				f.Sections[name] = cur
				f.Order = append(f.Order, name)
			}
			p.Log.Debug().Str("section", name).Int("line", lineNo).Int("columns", len(columns)).Msg("found section")
			continue
		}

		if cur == nil {
			return nil, &ParseError{Line: lineNo, Msg: "data row before any section header"}
		}
		if len(values) != len(cur.Columns) {
			p.Log.Debug().
				Str("section", cur.Name).
				Int("line", lineNo).
				Int("want", len(cur.Columns)).
				Int("got", len(values)).
				Msg("field count mismatch")
		}
		row := Row{Line: lineNo, Fields: make(map[string]string, len(cur.Columns))}
		for i, col := range cur.Columns {
			if i < len(values) {
				row.Fields[col] = values[i]
			} else {
				row.Fields[col] = ""
			}
		}
		cur.Rows = append(cur.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading iif: %w", err)
	}
	return f, nil
}
