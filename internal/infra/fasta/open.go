package fasta

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"
)

const readBufSize = 64 * 1024

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
	// gzipped is set when the file is decompressed on the fly.
	gzipped bool
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openReader opens path for streaming, transparently decompressing gzip
// (detected by magic number or by a .gz suffix).
func openReader(path string) (*multiReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(fh, readBufSize)
	magic, _ := br.Peek(2)
	if (len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(br)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}, gzipped: true}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{fh}}, nil
}

// commentPrefix starts a legacy FASTA comment line.
const commentPrefix = ';'

// commentFilter drops every line starting with ';' and passes the rest
// through unchanged. Lines longer than the buffer are handled in pieces.
type commentFilter struct {
	br          *bufio.Reader
	pending     []byte
	atLineStart bool
	skipping    bool
	err         error
}

func newCommentFilter(r io.Reader, size int) *commentFilter {
	return &commentFilter{br: bufio.NewReaderSize(r, size), atLineStart: true}
}

func (c *commentFilter) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		chunk, err := c.br.ReadSlice('\n')
		if err != nil && err != bufio.ErrBufferFull {
			c.err = err
		}
		if len(chunk) == 0 {
			continue
		}
		if c.atLineStart {
			c.skipping = chunk[0] == commentPrefix
		}
		c.atLineStart = chunk[len(chunk)-1] == '\n'
		if !c.skipping {
			c.pending = chunk
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}
