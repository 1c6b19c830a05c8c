// Package audio consumes inbound audio streams and persists them as
// time-partitioned chunk files.
//
// A ChunkWriter reads a stream in fixed-size blocks, buffers them, and
// flushes the buffer to a numbered file whenever the flush interval has
// elapsed. Whatever remains in the buffer when the stream ends is written
// as a final chunk, so concatenating the chunk files in index order
// reproduces the stream byte for byte.
package audio
