package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ZipReader reads a package from a zip archive
type ZipReader struct {
	reader  *zip.Reader
	closer  io.Closer
	entries []Entry
	byName  map[string]Entry
}

// OpenFile opens the zip archive at path. The file stays open until Close.
func OpenFile(path string, opts ...Option) (*ZipReader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip file: %w", err)
	}
	zr := newZipReader(&rc.Reader, buildOptions(opts))
	zr.closer = rc
	return zr, nil
}

// NewReader reads a zip archive of the given size from r.
func NewReader(r io.ReaderAt, size int64, opts ...Option) (*ZipReader, error) {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}
	return newZipReader(reader, buildOptions(opts)), nil
}

func newZipReader(reader *zip.Reader, o options) *ZipReader {
	zr := &ZipReader{
		reader:  reader,
		entries: make([]Entry, 0, len(reader.File)),
		byName:  make(map[string]Entry, len(reader.File)),
	}

	// Index all entries by lowercased name; the first one wins
	for _, file := range reader.File {
		e := &zipEntry{file: file, maxSize: o.maxEntrySize}
		zr.entries = append(zr.entries, e)
		key := strings.ToLower(file.Name)
		if _, ok := zr.byName[key]; !ok {
			zr.byName[key] = e
		}
	}
	return zr
}

// Entries returns the entries in archive order
func (zr *ZipReader) Entries() []Entry {
	out := make([]Entry, len(zr.entries))
	copy(out, zr.entries)
	return out
}

// Entry returns the entry with the given name, ignoring ASCII case
func (zr *ZipReader) Entry(name string) Entry {
	if e, ok := zr.byName[strings.ToLower(name)]; ok {
		return e
	}
	return nil
}

// Close releases the underlying file, if any
func (zr *ZipReader) Close() error {
	if zr.closer == nil {
		return nil
	}
	err := zr.closer.Close()
	zr.closer = nil
	return err
}

type zipEntry struct {
	file    *zip.File
	maxSize int64
}

func (e *zipEntry) Name() string {
	return e.file.Name
}

func (e *zipEntry) Size() int64 {
	return int64(e.file.UncompressedSize64)
}

func (e *zipEntry) IsDir() bool {
	return strings.HasSuffix(e.file.Name, "/")
}

func (e *zipEntry) Open() (io.ReadCloser, error) {
	if e.maxSize > 0 && e.file.UncompressedSize64 > uint64(e.maxSize) {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrEntryTooLarge, e.file.Name, e.file.UncompressedSize64)
	}
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.file.Name, err)
	}
	return rc, nil
}

// ZipWriter writes a package as a zip archive
type ZipWriter struct {
	writer *zip.Writer
	names  map[string]bool
}

// NewWriter returns a writer producing a zip archive on w.
func NewWriter(w io.Writer, opts ...Option) *ZipWriter {
	o := buildOptions(opts)
	zw := zip.NewWriter(w)
	level := o.compressionLevel
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return &ZipWriter{
		writer: zw,
		names:  make(map[string]bool),
	}
}

// Create starts a new deflated entry
func (zw *ZipWriter) Create(name string) (io.Writer, error) {
	key := strings.ToLower(name)
	if zw.names[key] {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, name)
	}
	zw.names[key] = true

	w, err := zw.writer.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return w, nil
}

// Close writes the central directory
func (zw *ZipWriter) Close() error {
	if err := zw.writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}
	return nil
}

var (
	_ Reader = (*ZipReader)(nil)
	_ Writer = (*ZipWriter)(nil)
)
