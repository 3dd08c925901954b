package archive

import (
	"errors"
	"io"
	"strings"
)

// ErrEntryTooLarge is returned when an entry exceeds the configured maximum size
var ErrEntryTooLarge = errors.New("archive: entry exceeds maximum size")

// ErrDuplicateEntry is returned when a writer is asked for the same name twice
var ErrDuplicateEntry = errors.New("archive: duplicate entry")

// Entry is one named item of an archive
type Entry interface {
	Name() string
	Size() int64
	IsDir() bool
	Open() (io.ReadCloser, error)
}

// Reader enumerates and opens the entries of an existing archive
type Reader interface {
	// Entries returns the entries in archive order.
	Entries() []Entry
	// Entry looks an entry up by name, ignoring ASCII case. It returns nil if absent.
	Entry(name string) Entry
	Close() error
}

// Writer produces a new archive, one entry at a time
type Writer interface {
	// Create adds an entry and returns a writer for its content. The returned
	// writer is valid until the next call to Create or Close.
	Create(name string) (io.Writer, error)
	Close() error
}

type options struct {
	maxEntrySize     int64
	compressionLevel int
}

// Option configures readers and writers
type Option func(*options)

// WithMaxEntrySize rejects entries whose uncompressed size exceeds n bytes. Zero disables the check.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		o.maxEntrySize = n
	}
}

// WithCompressionLevel sets the deflate level used by writers.
func WithCompressionLevel(level int) Option {
	return func(o *options) {
		o.compressionLevel = level
	}
}

func buildOptions(opts []Option) options {
	o := options{compressionLevel: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ZipItemName converts a part name to the name of its zip item.
func ZipItemName(partName string) string {
	return strings.TrimPrefix(partName, "/")
}

// PartName converts a zip item name to a part name.
func PartName(itemName string) string {
	if strings.HasPrefix(itemName, "/") {
		return itemName
	}
	return "/" + itemName
}
