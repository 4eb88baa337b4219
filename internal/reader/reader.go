// Package reader streams VCF records out of a BGZF-compressed file given
// the chunk list a vcfindex.Index resolved for a query window. It decodes
// lazily and never buffers more than the current chunk.
package reader

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/brentp/vcfgo"

	"github.com/googlegenomics/vcfserve/internal/genomics"
	"github.com/googlegenomics/vcfserve/internal/vcfindex"
	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

// Reader scans chunks of a single VCF source.
type Reader struct {
	src *vcfio.Source
}

// New returns a Reader over src.
func New(src *vcfio.Source) *Reader {
	return &Reader{src: src}
}

// Stream opens a lazy cursor over the records in idx's chunks falling in
// window. Records are yielded in ascending position order, and in file
// order for ties, matching the ordering guarantee in spec §5.
func (r *Reader) Stream(idx *vcfindex.Index, window genomics.Region) (*Cursor, error) {
	if idx.Kind() == vcfindex.KindFlat {
		offset, ok := idx.FlatOffset(window.Chromosome)
		if !ok {
			return nil, vcfindex.ErrUnknownReference
		}
		return &Cursor{
			src:       r.src,
			window:    window,
			flat:      true,
			flatStart: offset,
		}, nil
	}

	chunks, err := idx.Chunks(window.Chromosome, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		src:    r.src,
		chunks: chunks,
		window: window,
	}, nil
}

// Cursor lazily yields Variant records from a chunk list. It must be
// closed after use.
type Cursor struct {
	src    *vcfio.Source
	chunks []bgzf.Chunk

	window genomics.Region

	chunkPos   int
	file       *os.File
	bgzfReader *bgzf.Reader
	vcfReader  *vcfgo.Reader

	// flat mode: a plain (non-BGZF) source scanned linearly from a single
	// byte offset, used when the backing index is vcfindex.KindFlat.
	flat       bool
	flatStart  int64
	flatOpened bool
}

// Next returns the next overlapping variant, or io.EOF once the window is
// exhausted.
func (c *Cursor) Next() (*vcfio.Variant, error) {
	if c.flat {
		return c.nextFlat()
	}

	for {
		if c.vcfReader == nil {
			if c.chunkPos >= len(c.chunks) {
				return nil, io.EOF
			}
			chunk := c.chunks[c.chunkPos]
			c.chunkPos++
			if err := c.openChunk(chunk); err != nil {
				return nil, err
			}
		}

		v := c.vcfReader.Read()
		if v == nil {
			c.closeChunk()
			continue
		}
		if v.Chromosome != c.window.Chromosome {
			continue
		}
		if v.Pos > c.window.End {
			// Positions only increase within a chunk and chunks are
			// returned in ascending order; nothing past this point can
			// still be in range.
			c.closeChunk()
			c.chunkPos = len(c.chunks)
			continue
		}
		if !c.window.Contains(v.Pos) {
			continue
		}
		return vcfio.FromVcfgo(v), nil
	}
}

// Close releases any chunk currently open.
func (c *Cursor) Close() error {
	c.closeChunk()
	return nil
}

// nextFlat linearly scans a plain-text source from its chromosome's first
// record, stopping at the same bounds a chunked Next would.
func (c *Cursor) nextFlat() (*vcfio.Variant, error) {
	if !c.flatOpened {
		if err := c.openFlat(); err != nil {
			return nil, err
		}
		c.flatOpened = true
	}
	if c.vcfReader == nil {
		return nil, io.EOF
	}

	for {
		v := c.vcfReader.Read()
		if v == nil {
			c.closeChunk()
			return nil, io.EOF
		}
		if v.Chromosome != c.window.Chromosome {
			// Flat offsets only guarantee the start of the chromosome's
			// run of records; once it ends, nothing further matches.
			c.closeChunk()
			return nil, io.EOF
		}
		if v.Pos > c.window.End {
			c.closeChunk()
			return nil, io.EOF
		}
		if !c.window.Contains(v.Pos) {
			continue
		}
		return vcfio.FromVcfgo(v), nil
	}
}

func (c *Cursor) openFlat() error {
	f, err := os.Open(c.src.Path)
	if err != nil {
		return fmt.Errorf("reader: opening %s: %w", c.src.Path, err)
	}
	if _, err := f.Seek(c.flatStart, io.SeekStart); err != nil {
		f.Close()
		return fmt.Errorf("reader: seeking %s: %w", c.src.Path, err)
	}

	vcfReader, err := c.src.DecodeChunk(f)
	if err != nil {
		f.Close()
		return err
	}

	c.file = f
	c.vcfReader = vcfReader
	return nil
}

func (c *Cursor) openChunk(chunk bgzf.Chunk) error {
	f, err := os.Open(c.src.Path)
	if err != nil {
		return fmt.Errorf("reader: opening %s: %w", c.src.Path, err)
	}

	bgzfReader, err := bgzf.NewReader(f, 0)
	if err != nil {
		f.Close()
		return fmt.Errorf("reader: %s is not valid bgzf: %w", c.src.Path, err)
	}

	if err := bgzfReader.Seek(chunk.Begin); err != nil {
		bgzfReader.Close()
		f.Close()
		return fmt.Errorf("reader: seeking to %v: %w", chunk.Begin, err)
	}

	vcfReader, err := c.src.DecodeChunk(&boundedReader{r: bgzfReader, end: chunk.End})
	if err != nil {
		bgzfReader.Close()
		f.Close()
		return err
	}

	c.file = f
	c.bgzfReader = bgzfReader
	c.vcfReader = vcfReader
	return nil
}

func (c *Cursor) closeChunk() {
	c.vcfReader = nil
	if c.bgzfReader != nil {
		c.bgzfReader.Close()
		c.bgzfReader = nil
	}
	if c.file != nil {
		c.file.Close()
		c.file = nil
	}
}

// boundedReader stops returning data once the underlying bgzf.Reader's
// virtual offset reaches the chunk's end, so a chunk read never spills
// into the next record's chunk.
type boundedReader struct {
	r   *bgzf.Reader
	end bgzf.Offset
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if !offsetLess(b.r.LastChunk().Begin, b.end) {
		return 0, io.EOF
	}
	return b.r.Read(p)
}

func offsetLess(a, b bgzf.Offset) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	return a.Block < b.Block
}
