package utils

import (
	"io"
	"sync"
)

const lineTerminatorConstant = "\n"

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes from concurrent producers and makes each write visible
// immediately by invoking Flush when the underlying writer buffers.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. A nil writer results in a discarding writer.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if writer == nil {
		writer = io.Discard
	}
	if alreadyWrapped, isFlushingWriter := writer.(*FlushingWriter); isFlushingWriter {
		return alreadyWrapped
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	return flushingWriter.writeAndFlush(data)
}

// WriteLine writes the line followed by a newline as a single flushed write.
func (flushingWriter *FlushingWriter) WriteLine(line string) error {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	_, writeError := flushingWriter.writeAndFlush([]byte(line + lineTerminatorConstant))
	return writeError
}

func (flushingWriter *FlushingWriter) writeAndFlush(data []byte) (int, error) {
	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushableWriter, implementsFlush := flushingWriter.writer.(flusher); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}
