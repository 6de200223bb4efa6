package utils

import (
	"io"
	"sync"
)

// flushable is the optional interface buffered writers expose.
type flushable interface {
	Flush() error
}

// FlushingWriter flushes the destination after every write so scan progress
// lines reach the terminal as repositories are discovered, not when a buffer
// happens to fill. Writes are serialized; extraction workers share one
// progress stream.
type FlushingWriter struct {
	destination io.Writer
	flush       func() error
	mutex       sync.Mutex
}

// NewFlushingWriter wraps the destination writer. Destinations without a
// Flush method pass through untouched apart from write serialization, and an
// already-wrapped destination is returned as is.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyWrapped := destination.(*FlushingWriter); alreadyWrapped {
		return destination
	}

	wrappedWriter := &FlushingWriter{destination: destination}
	if flushableDestination, canFlush := destination.(flushable); canFlush {
		wrappedWriter.flush = flushableDestination.Flush
	}
	return wrappedWriter
}

// Write forwards to the destination and flushes it when supported.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.destination.Write(data)
	if writeError != nil || flushingWriter.flush == nil {
		return bytesWritten, writeError
	}
	if flushError := flushingWriter.flush(); flushError != nil {
		return bytesWritten, flushError
	}
	return bytesWritten, nil
}
