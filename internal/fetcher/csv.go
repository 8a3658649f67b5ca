package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // 0 sniffs the first line
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
}

// sniffCandidates are the delimiters seen in supplier exports.
var sniffCandidates = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the candidate delimiter that occurs most often in the
// first line of sample. Ties and empty samples fall back to a comma.
func SniffDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	best, bestN := ',', 0
	for _, c := range sniffCandidates {
		if n := bytes.Count(sample, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

// StreamCSV reads CSV rows from r and sends them on a channel, cells trimmed
// and a leading UTF-8 BOM removed. Both channels are closed when processing
// completes; the caller must drain the row channel.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		br := bufio.NewReader(r)
		if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte("\ufeff")) {
			_, _ = br.Discard(3)
		}
		delim := opts.Delimiter
		if delim == 0 {
			sample, _ := br.Peek(4096)
			delim = SniffDelimiter(sample)
		}

		reader := csv.NewReader(br)
		reader.Comma = delim
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSVRecords reads a headed CSV into records. An empty input yields no
// records and no error.
func ReadCSVRecords(ctx context.Context, r io.Reader, opts CSVOptions) ([]Record, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)

	var header []string
	var rows [][]string
	for row := range rowCh {
		if header == nil {
			header = row
			continue
		}
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if header == nil {
		return nil, nil
	}
	return toRecords(header, rows), nil
}
