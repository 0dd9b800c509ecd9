package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/zsiec/reel/internal/media"
)

// ProbeSize is the number of leading file bytes handed to Opener.Probe.
const ProbeSize = 512

// ErrNotInitialized is returned by Backend methods called before Init.
var ErrNotInitialized = errors.New("source: backend not initialized")

// Backend is the media backend: a set of container openers and codec
// decoders. It must be initialized once with Init before any source is
// opened.
type Backend struct {
	log      *slog.Logger
	openers  []Opener
	decoders map[string]DecoderFactory

	initOnce    sync.Once
	initialized bool
	mu          sync.RWMutex
}

// NewBackend creates a backend with the given openers. Openers are probed in
// order. If log is nil, slog.Default() is used.
func NewBackend(log *slog.Logger, openers ...Opener) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		log:      log.With("component", "media-backend"),
		openers:  openers,
		decoders: make(map[string]DecoderFactory),
	}
}

// RegisterDecoder makes factory responsible for codec. Registering the same
// codec twice replaces the earlier factory.
func (b *Backend) RegisterDecoder(codec string, factory DecoderFactory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decoders[codec] = factory
}

// Init performs one-time backend setup. It returns true on the call that
// initialized the backend and false on every later call, which are no-ops.
func (b *Backend) Init() bool {
	first := false
	b.initOnce.Do(func() {
		b.mu.Lock()
		b.initialized = true
		names := make([]string, len(b.openers))
		for i, o := range b.openers {
			names[i] = o.Name()
		}
		codecs := make([]string, 0, len(b.decoders))
		for c := range b.decoders {
			codecs = append(codecs, c)
		}
		b.mu.Unlock()
		b.log.Debug("media backend initialized", "containers", names, "codecs", codecs)
		first = true
	})
	return first
}

func (b *Backend) ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// Open opens path with the first opener whose Probe accepts it. Local files
// are checked for existence first. All failures wrap media.ErrSourceOpen.
func (b *Backend) Open(ctx context.Context, path string) (Source, error) {
	if !b.ready() {
		return nil, ErrNotInitialized
	}

	header, err := readHeader(path)
	if err != nil {
		return nil, &media.SourceError{Path: path, Err: err}
	}

	for _, o := range b.openers {
		if !o.Probe(path, header) {
			continue
		}
		b.log.Debug("opening source", "path", path, "container", o.Name())
		src, err := o.Open(ctx, path)
		if err != nil {
			return nil, &media.SourceError{Path: path, Err: err}
		}
		return src, nil
	}
	return nil, &media.SourceError{Path: path, Err: errors.New("unrecognized container")}
}

// NewDecoder creates a decoder for info.Codec.
func (b *Backend) NewDecoder(info media.StreamInfo) (Decoder, error) {
	if !b.ready() {
		return nil, ErrNotInitialized
	}
	b.mu.RLock()
	factory, ok := b.decoders[info.Codec]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for codec %q", media.ErrDecode, info.Codec)
	}
	dec, err := factory(info)
	if err != nil {
		return nil, fmt.Errorf("%w: %s decoder: %v", media.ErrDecode, info.Codec, err)
	}
	return dec, nil
}

// IsURL reports whether path names a network location rather than a file.
func IsURL(path string) bool {
	return strings.Contains(path, "://")
}

func readHeader(path string) ([]byte, error) {
	if IsURL(path) {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, ProbeSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
