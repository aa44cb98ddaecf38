package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Supported input encodings.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

// LoadOptions controls how a survey file is read.
type LoadOptions struct {
	// Delimiter between fields. Defaults to ','.
	Delimiter rune
	// Encoding of the file: "latin1" (ISO-8859-1, default) or "utf8".
	Encoding string
	// KeepDuplicates disables row deduplication.
	KeepDuplicates bool
}

// DefaultLoadOptions returns the options used for the survey export: comma
// separated, ISO-8859-1, duplicates removed.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Delimiter: ',', Encoding: EncodingLatin1}
}

// Load reads a delimited survey file into an immutable RecordSet.
func Load(path string, opt LoadOptions) (*RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open survey: %w", err)
	}
	defer f.Close()
	return Read(bufio.NewReader(f), filepath.Base(path), opt)
}

// Read parses a delimited stream. name is used in diagnostics and reports.
func Read(r io.Reader, name string, opt LoadOptions) (*RecordSet, error) {
	encoding, err := NormalizeEncoding(opt.Encoding)
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}
	src := decoder(r, encoding)
	cr := csv.NewReader(src)
	cr.Comma = opt.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.FieldsPerRecord = 0
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: name, Line: 1, Err: errors.New("empty file: header row missing")}
		}
		return nil, parseFailure(name, err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	validUTF8 := encoding == EncodingUTF8
	if validUTF8 {
		for _, h := range header {
			if !utf8.ValidString(h) {
				return nil, &LoadError{Path: name, Line: 1, Err: errors.New("header is not valid UTF-8; try --encoding latin1")}
			}
		}
	}

	rs, err := newRecordSet(name, header)
	if err != nil {
		return nil, &LoadError{Path: name, Line: 1, Err: err}
	}

	seen := make(map[string]struct{})
	record := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, parseFailure(name, err)
		}
		record++
		if validUTF8 {
			for j, v := range rec {
				if !utf8.ValidString(v) {
					line, _ := cr.FieldPos(j)
					return nil, &LoadError{Path: name, Line: line, Column: header[j], Err: errors.New("invalid UTF-8; try --encoding latin1")}
				}
			}
		}
		if !opt.KeepDuplicates {
			sig := rowSignature(rec)
			if _, dup := seen[sig]; dup {
				rs.duplicates++
				continue
			}
			seen[sig] = struct{}{}
		}
		rs.rows = append(rs.rows, append([]string(nil), rec...))
		rs.keys = append(rs.keys, RowKey(record))
	}
	return rs, nil
}

// NormalizeEncoding maps the accepted spellings of an encoding name to
// EncodingLatin1 or EncodingUTF8. Empty means Latin-1.
func NormalizeEncoding(encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingLatin1, "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	case EncodingUTF8, "utf-8":
		return EncodingUTF8, nil
	}
	return "", fmt.Errorf("unsupported encoding %q (use latin1 or utf8)", encoding)
}

func decoder(r io.Reader, encoding string) io.Reader {
	if encoding == EncodingUTF8 {
		return r
	}
	return charmap.ISO8859_1.NewDecoder().Reader(r)
}

// rowSignature prefixes every cell with its length so that no two distinct
// records share a signature, whatever bytes the cells hold.
func rowSignature(rec []string) string {
	var b strings.Builder
	for _, cell := range rec {
		b.WriteString(strconv.Itoa(len(cell)))
		b.WriteByte(':')
		b.WriteString(cell)
	}
	return b.String()
}

func parseFailure(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Path: name, Line: pe.Line, Err: pe.Err}
	}
	return &LoadError{Path: name, Err: err}
}

// IsMissing reports whether a raw cell is a missing marker: empty after
// trimming, "NA" or "NaN".
func IsMissing(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NA", "NaN":
		return true
	}
	return false
}

// ReadBytes is a convenience wrapper around Read for in-memory data.
func ReadBytes(b []byte, name string, opt LoadOptions) (*RecordSet, error) {
	return Read(bytes.NewReader(b), name, opt)
}
