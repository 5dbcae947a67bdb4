package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/Alex240101/oxapampa/internal/domain/bulk"
)

// maxSniff is how much of a CSV file is inspected to pick the delimiter and
// the encoding.
const maxSniff = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrEmptyFile is returned for a CSV upload with no content.
var ErrEmptyFile = errors.New("spreadsheet: file is empty")

// ReadProductCSV reads the product layout from a CSV export. Excel in a
// Spanish locale writes ';' separated files in Windows-1252, so the delimiter
// is taken from the header line and input that is not valid UTF-8 is decoded
// as Windows-1252. Header matching follows ReadProductRows; a row keeps the file line it
// starts on.
func ReadProductCSV(r io.Reader) ([]bulk.ImportRow, error) {
	br := bufio.NewReaderSize(r, maxSniff)
	head, err := br.Peek(maxSniff)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("spreadsheet: failed to read file: %w", err)
	}
	if bytes.HasPrefix(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
		head = head[len(utf8BOM):]
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}

	var src io.Reader = br
	if !validUTF8Prefix(head) {
		src = transform.NewReader(br, charmap.Windows1252.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.Comma = sniffDelimiter(head)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var (
		rows  [][]string
		lines []int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("spreadsheet: malformed csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
	return importRows(rows, lines)
}

// sniffDelimiter picks ';', tab or ',' by counting them on the header line.
func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexAny(head, "\r\n"); i >= 0 {
		line = head[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// validUTF8Prefix reports whether p is UTF-8, allowing a rune cut off at the
// end of the sniffed window.
func validUTF8Prefix(p []byte) bool {
	for len(p) > 0 {
		r, size := utf8.DecodeRune(p)
		if r == utf8.RuneError && size <= 1 {
			return len(p) < utf8.UTFMax && !utf8.FullRune(p)
		}
		p = p[size:]
	}
	return true
}

// RowReader parses an uploaded catalog file.
type RowReader func(io.Reader) ([]bulk.ImportRow, error)

// ReaderFor returns the reader for a file name by extension: .xlsx or .csv.
func ReaderFor(fileName string) (RowReader, bool) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return ReadProductRows, true
	case ".csv":
		return ReadProductCSV, true
	}
	return nil, false
}
