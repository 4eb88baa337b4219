package vcfio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/brentp/vcfgo"
	"github.com/brentp/xopen"
)

// Source is an opened VCF file: its path, whether it is BGZF-compressed,
// and its parsed header. The header is read once at Open and cached;
// nothing here keeps the underlying file descriptor open.
type Source struct {
	Path       string
	Compressed bool
	Header     *Header
}

// Open reads path (transparently decompressing via xopen if needed) far
// enough to capture and parse its header, then closes the handle. Callers
// reopen the file themselves for indexed or sequential body access.
func Open(path string) (*Source, error) {
	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("vcfio: opening %s: %w", path, err)
	}
	defer f.Close()

	var raw strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "#") {
			break
		}
		raw.WriteString(line)
		raw.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vcfio: reading header of %s: %w", path, err)
	}

	header, err := ParseHeader(raw.String())
	if err != nil {
		return nil, fmt.Errorf("vcfio: %s: %w", path, err)
	}

	return &Source{
		Path:       path,
		Compressed: isBgzipName(path),
		Header:     header,
	}, nil
}

// OpenBody opens a fresh, transparently-decompressed reader over the whole
// file, for full-file scans (ID index build, statistics).
func (s *Source) OpenBody() (io.ReadCloser, error) {
	f, err := xopen.Ropen(s.Path)
	if err != nil {
		return nil, fmt.Errorf("vcfio: reopening %s: %w", s.Path, err)
	}
	return f, nil
}

// DecodeChunk wraps a headerless body reader (as returned by the genomic
// index's chunk reader) with the cached header so vcfgo can decode records
// from it without re-reading the header from disk on every chunk.
func (s *Source) DecodeChunk(body io.Reader) (*vcfgo.Reader, error) {
	rdr, err := vcfgo.NewReader(io.MultiReader(strings.NewReader(s.Header.Raw), body), true)
	if err != nil {
		return nil, fmt.Errorf("vcfio: decoding chunk: %w", err)
	}
	return rdr, nil
}

// DecodeFull opens a vcfgo.Reader over the entire file, header included,
// for full-file scans.
func (s *Source) DecodeFull() (*vcfgo.Reader, io.Closer, error) {
	body, err := s.OpenBody()
	if err != nil {
		return nil, nil, err
	}
	rdr, err := vcfgo.NewReader(body, true)
	if err != nil {
		body.Close()
		return nil, nil, fmt.Errorf("vcfio: decoding %s: %w", s.Path, err)
	}
	return rdr, body, nil
}

func isBgzipName(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".bgz")
}
