// Package export builds log dumps of the captured events and polled state.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
)

var (
	ErrNoConstants        = errors.New("constants not received yet")
	ErrUnknownCompression = errors.New("unknown compression")
)

// Compression selects how Encode compresses a dump.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression resolves a compression name; empty means none.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(name); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// Extension returns the file suffix for dumps in this compression.
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".json.gz"
	case CompressionZstd:
		return ".json.zst"
	default:
		return ".json"
	}
}

// Dump is a saved log: everything needed to view the capture elsewhere.
type Dump struct {
	ID           string         `json:"id"`
	Constants    map[string]any `json:"constants"`
	Events       []any          `json:"events"`
	PolledData   map[string]any `json:"polledData"`
	UserComments string         `json:"userComments,omitempty"`
	NumericDate  int64          `json:"numericDate"`

	// Partial is set when some feeds did not answer in time and their last
	// known values were used.
	Partial bool `json:"partial,omitempty"`
}

// Request describes one dump.
type Request struct {
	UserComments     string
	PrivacyStripping bool
}

// Exporter builds dumps from a bridge and an events tracker.
type Exporter struct {
	bridge  *bridge.Bridge
	tracker *events.Tracker
	logger  *logging.Logger
	timeout time.Duration
}

// DefaultTimeout bounds the wait for feeds when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// New creates an exporter. A zero timeout uses DefaultTimeout.
func New(b *bridge.Bridge, tracker *events.Tracker, timeout time.Duration, logger *logging.Logger) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{
		bridge:  b,
		tracker: tracker,
		logger:  logger.For("export"),
		timeout: timeout,
	}
}

// Build gathers a dump. While capturing it refreshes every feed and waits
// for all of them; once the bridge is disabled the last values are used.
func (e *Exporter) Build(ctx context.Context, req Request) (*Dump, error) {
	c := e.bridge.Constants()
	if c == nil {
		return nil, ErrNoConstants
	}

	polled, partial := e.pollAll(ctx)

	entries := e.tracker.Entries()
	evs := make([]any, len(entries))
	for i, entry := range entries {
		if req.PrivacyStripping {
			evs[i] = StripPrivateData(entry.Data)
		} else {
			evs[i] = entry.Data
		}
	}

	return &Dump{
		ID:           uuid.New().String(),
		Constants:    c.Raw,
		Events:       evs,
		PolledData:   byName(polled),
		UserComments: req.UserComments,
		NumericDate:  time.Now().UnixMilli(),
		Partial:      partial,
	}, nil
}

func (e *Exporter) pollAll(ctx context.Context) (map[bridge.FeedName]any, bool) {
	if e.bridge.IsDisabled() {
		return e.bridge.Snapshot(), false
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	done := make(chan map[bridge.FeedName]any, 1)
	stop := e.bridge.UpdateAllInfo(func(values map[bridge.FeedName]any) {
		done <- values
	})
	defer stop()

	select {
	case values := <-done:
		return values, false
	case <-ctx.Done():
		e.logger.Warn("Feeds did not all answer, using last known values", zap.Error(ctx.Err()))
		return e.bridge.Snapshot(), true
	}
}

func byName(values map[bridge.FeedName]any) map[string]any {
	out := make(map[string]any, len(values))
	for name, v := range values {
		out[string(name)] = v
	}
	return out
}

// Encode writes the dump as JSON, compressed as requested.
func (d *Dump) Encode(w io.Writer, compression Compression) error {
	data, err := sonic.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}

	switch compression {
	case CompressionGzip:
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(data); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case CompressionNone, "":
		_, err := w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCompression, compression)
	}
}

// Decode reads a dump written by Encode.
func Decode(r io.Reader, compression Compression) (*Dump, error) {
	switch compression {
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var d Dump
	if err := sonic.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	return &d, nil
}

// ShortID is the first eight characters of the dump ID, used in file names.
// An empty ID gives "dump".
func (d *Dump) ShortID() string {
	switch {
	case d.ID == "":
		return "dump"
	case len(d.ID) < 8:
		return d.ID
	default:
		return d.ID[:8]
	}
}

// Save writes the dump into dir and returns the file path.
func (d *Dump) Save(dir string, compression Compression) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("net-internals-%s-%s%s",
		time.UnixMilli(d.NumericDate).UTC().Format("20060102-150405"), d.ShortID(), compression.Extension())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := d.Encode(f, compression); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
