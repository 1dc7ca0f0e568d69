package fasta

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

const headerPrefix = '>'

// ctxCheckEvery bounds how many lines are scanned between cancellation checks.
const ctxCheckEvery = 4096

// Inspector counts record headers up to two and stops reading as soon as the
// second one is seen. Sequence lines are never buffered whole.
type Inspector struct {
	log *slog.Logger
}

type InspectorOption func(*Inspector)

func WithInspectorLogger(l *slog.Logger) InspectorOption {
	return func(i *Inspector) {
		if l != nil {
			i.log = l
		}
	}
}

func NewInspector(opts ...InspectorOption) *Inspector {
	i := &Inspector{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

var _ ports.SequenceInspector = (*Inspector)(nil)

func (i *Inspector) Inspect(ctx context.Context, src domain.SequenceSource) (domain.InspectionResult, error) {
	rc, err := openReader(src.Path)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, fs.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return domain.InspectionResult{}, &domain.OpError{
			Op:   "fasta.inspect",
			Kind: kind,
			Role: src.Role,
			Path: src.Path,
			Err:  err,
		}
	}
	defer rc.Close()

	headers, err := countHeaders(ctx, rc, 2)
	if err != nil {
		var oe *domain.OpError
		if errors.As(err, &oe) {
			oe.Role = src.Role
			oe.Path = src.Path
			return domain.InspectionResult{}, oe
		}
		return domain.InspectionResult{}, &domain.OpError{
			Op:   "fasta.inspect",
			Kind: domain.KindExecution,
			Role: src.Role,
			Path: src.Path,
			Err:  err,
		}
	}
	if headers == 0 {
		return domain.InspectionResult{}, &domain.OpError{
			Op:   "fasta.inspect",
			Kind: domain.KindMalformedInput,
			Role: src.Role,
			Path: src.Path,
			Err:  errors.New("no sequence record found"),
		}
	}

	res := domain.InspectionResult{Role: src.Role, Path: src.Path, Count: domain.CountOne, Compressed: rc.gzipped}
	if headers > 1 {
		res.Count = domain.CountMany
	}
	i.log.Debug("fasta.inspected", "role", src.Role, "path", src.Path, "count", res.Count, "gzip", res.Compressed)
	return res, nil
}

// countHeaders returns the number of record headers in r, stopping early once
// limit is reached. Non-blank data before the first header is malformed;
// ';' comment lines are ignored anywhere.
func countHeaders(ctx context.Context, r io.Reader, limit int) (int, error) {
	br := bufio.NewReaderSize(r, readBufSize)

	var (
		headers     int
		atLineStart = true
		lines       int
	)
	for {
		line, isPrefix, err := br.ReadLine()
		if err == io.EOF {
			return headers, nil
		}
		if err != nil {
			return headers, err
		}

		if atLineStart {
			lines++
			if lines%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return headers, err
				}
			}

			switch {
			case len(line) > 0 && line[0] == commentPrefix:
				// skipped
			case len(line) > 0 && line[0] == headerPrefix:
				headers++
				if headers >= limit {
					return headers, nil
				}
			case headers == 0 && len(bytes.TrimSpace(line)) > 0:
				return 0, &domain.OpError{
					Op:   "fasta.inspect",
					Kind: domain.KindMalformedInput,
					Err:  errors.New("sequence data before first header"),
				}
			}
		}
		atLineStart = !isPrefix
	}
}
