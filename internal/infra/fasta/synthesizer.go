package fasta

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	biofasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/google/uuid"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

const (
	// HeaderSuffix marks a synthesized record in its header line.
	HeaderSuffix = "_intermediate_concatenation"
	// SynthExt is the extension of synthesized files.
	SynthExt = ".fa"

	maxCreateAttempts = 3
)

// Synthesizer concatenates every record body of a FASTA file into a single
// record written next to the comparison output.
type Synthesizer struct {
	log     *slog.Logger
	newName func(stem string) string
}

type SynthesizerOption func(*Synthesizer)

func WithSynthesizerLogger(l *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNameFunc is useful for tests.
func WithNameFunc(fn func(stem string) string) SynthesizerOption {
	return func(s *Synthesizer) {
		if fn != nil {
			s.newName = fn
		}
	}
}

func NewSynthesizer(opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newName: uniqueName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.SequenceSynthesizer = (*Synthesizer)(nil)

func uniqueName(stem string) string {
	return fmt.Sprintf("%s_%s%s", stem, uuid.NewString(), SynthExt)
}

// Header returns the header line (without '>') used for a synthesized source.
func Header(src domain.SequenceSource) string {
	return src.Stem() + HeaderSuffix
}

// Synthesize never mutates src. On a write failure the partial file is left
// in place and returned, Path set, alongside the error.
func (s *Synthesizer) Synthesize(ctx context.Context, src domain.SequenceSource, dir string) (domain.SynthesizedSequence, error) {
	in, err := openReader(src.Path)
	if err != nil {
		kind := domain.KindSynthesisIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return domain.SynthesizedSequence{}, &domain.OpError{
			Op:   "synth.open",
			Kind: kind,
			Role: src.Role,
			Path: src.Path,
			Err:  err,
		}
	}
	defer in.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.SynthesizedSequence{}, &domain.OpError{
			Op:   "synth.mkdir",
			Kind: domain.KindSynthesisIO,
			Role: src.Role,
			Path: dir,
			Err:  err,
		}
	}

	out, outPath, err := s.create(dir, src.Stem())
	if err != nil {
		return domain.SynthesizedSequence{}, &domain.OpError{
			Op:   "synth.create",
			Kind: domain.KindSynthesisIO,
			Role: src.Role,
			Path: outPath,
			Err:  err,
		}
	}

	synth := domain.SynthesizedSequence{
		Path:       outPath,
		Role:       src.Role,
		SourcePath: src.Path,
		Header:     Header(src),
	}

	records, n, werr := writeConcatenation(ctx, newCommentFilter(in, readBufSize), out, synth.Header)
	cerr := out.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		kind := domain.KindSynthesisIO
		if errors.Is(werr, errParse) {
			kind = domain.KindMalformedInput
		}
		return synth, &domain.OpError{
			Op:   "synth.write",
			Kind: kind,
			Role: src.Role,
			Path: outPath,
			Err:  werr,
		}
	}

	synth.Records = records
	synth.BodyLength = n
	s.log.Info("synth.created",
		"role", src.Role,
		"source", src.Path,
		"path", outPath,
		"records", records,
		"body_length", n,
	)
	return synth, nil
}

func (s *Synthesizer) create(dir, stem string) (*os.File, string, error) {
	var (
		path string
		err  error
	)
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		path = filepath.Join(dir, s.newName(stem))
		var f *os.File
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, path, err
		}
	}
	return nil, path, err
}

var errParse = errors.New("fasta parse")

// writeConcatenation writes a single record: the header line then every input
// body, in file order, on one line with no separators. r must already be
// free of ';' comment lines.
func writeConcatenation(ctx context.Context, r io.Reader, w io.Writer, header string) (records int, bodyLen int64, err error) {
	bw := bufio.NewWriterSize(w, readBufSize)
	if _, err := fmt.Fprintf(bw, ">%s\n", header); err != nil {
		return 0, 0, err
	}

	template := &linear.Seq{Annotation: seq.Annotation{Alpha: alphabet.DNAredundant}}
	sc := seqio.NewScanner(biofasta.NewReader(r, template))

	var buf []byte
	for sc.Next() {
		if err := ctx.Err(); err != nil {
			return records, bodyLen, err
		}
		ls, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return records, bodyLen, fmt.Errorf("%w: unexpected sequence type %T", errParse, sc.Seq())
		}
		buf = buf[:0]
		for _, l := range ls.Seq {
			buf = append(buf, byte(l))
		}
		nw, err := bw.Write(buf)
		bodyLen += int64(nw)
		if err != nil {
			return records, bodyLen, err
		}
		records++
	}
	if err := sc.Error(); err != nil {
		return records, bodyLen, fmt.Errorf("%w: %v", errParse, err)
	}

	if err := bw.WriteByte('\n'); err != nil {
		return records, bodyLen, err
	}
	return records, bodyLen, bw.Flush()
}
