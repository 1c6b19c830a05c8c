package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Defaults for stream consumption.
const (
	// DefaultBlockSize is how many bytes are read from the stream at a time.
	DefaultBlockSize = 4096

	// DefaultFlushInterval is how long audio accumulates before the buffer
	// is flushed to a chunk file.
	DefaultFlushInterval = 10 * time.Second
)

// chunkFilePattern names chunk files within the target directory.
const chunkFilePattern = "audio_chunk_%d.wav"

// WriterConfig configures a ChunkWriter.
type WriterConfig struct {
	// Dir is the directory chunk files are written to. It is created on
	// the first flush, so an empty stream leaves no trace on disk.
	Dir string

	// BlockSize is the read size in bytes. Defaults to DefaultBlockSize.
	BlockSize int

	// FlushInterval is the accumulation window. Defaults to DefaultFlushInterval.
	FlushInterval time.Duration

	// Clock overrides the time source. Defaults to time.Now.
	Clock func() time.Time

	// Logger overrides the logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// StreamStats summarizes a consumed stream.
type StreamStats struct {
	// Chunks is the number of chunk files written
	Chunks int

	// Bytes is the total number of bytes read from the stream
	Bytes int64
}

// ChunkWriter persists an audio stream as numbered chunk files.
type ChunkWriter struct {
	dir           string
	blockSize     int
	flushInterval time.Duration
	clock         func() time.Time
	logger        *slog.Logger
}

// NewChunkWriter creates a ChunkWriter for the given configuration.
func NewChunkWriter(cfg WriterConfig) (*ChunkWriter, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("chunk directory is required")
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BlockSize < 0 {
		return nil, fmt.Errorf("block size must be positive")
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.FlushInterval < 0 {
		return nil, fmt.Errorf("flush interval must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &ChunkWriter{
		dir:           cfg.Dir,
		blockSize:     cfg.BlockSize,
		flushInterval: cfg.FlushInterval,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
	}, nil
}

// Consume reads the stream to completion, flushing buffered audio to a new
// chunk file each time the flush interval elapses. The interval is checked
// after every block read. The residual buffer is written as the final chunk
// when the stream ends, so zero bytes in means zero files out.
func (w *ChunkWriter) Consume(ctx context.Context, r io.Reader) (StreamStats, error) {
	var stats StreamStats

	buf := make([]byte, 0, w.blockSize)
	block := make([]byte, w.blockSize)
	index := 1
	windowStart := w.clock()
	dirCreated := false

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, readErr := r.Read(block)
		if n > 0 {
			buf = append(buf, block[:n]...)
			stats.Bytes += int64(n)
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return stats, fmt.Errorf("failed to read stream: %w", readErr)
		}

		if len(buf) > 0 && w.clock().Sub(windowStart) >= w.flushInterval {
			if !dirCreated {
				if err := os.MkdirAll(w.dir, 0o755); err != nil {
					return stats, fmt.Errorf("failed to create chunk directory: %w", err)
				}
				dirCreated = true
			}

			if err := w.writeChunk(index, buf); err != nil {
				return stats, err
			}

			stats.Chunks++
			index++
			buf = buf[:0]
			windowStart = w.clock()
		}
	}

	// Residual audio becomes the final chunk
	if len(buf) > 0 {
		if !dirCreated {
			if err := os.MkdirAll(w.dir, 0o755); err != nil {
				return stats, fmt.Errorf("failed to create chunk directory: %w", err)
			}
		}

		if err := w.writeChunk(index, buf); err != nil {
			return stats, err
		}
		stats.Chunks++
	}

	w.logger.Debug("Consumed audio stream",
		"dir", w.dir,
		"chunks", stats.Chunks,
		"bytes", stats.Bytes,
	)

	return stats, nil
}

// writeChunk persists one buffer as a numbered chunk file.
func (w *ChunkWriter) writeChunk(index int, data []byte) error {
	path := filepath.Join(w.dir, fmt.Sprintf(chunkFilePattern, index))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chunk %d: %w", index, err)
	}

	w.logger.Debug("Wrote audio chunk", "path", path, "bytes", len(data))
	return nil
}
