// Package progress provides Writer and Rewritable
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Writer consistently writes the number of bytes written to a Rewritable.
type Writer struct {
	io.Writer       // Writer to write to
	Bytes     int64 // Total number of bytes written

	*Rewritable
}

func (cw *Writer) Write(bytes []byte) (int, error) {
	cw.Bytes += int64(len(bytes))
	cw.Rewritable.Write(fmt.Sprintf("Wrote %s", humanize.Bytes(uint64(cw.Bytes))))
	return cw.Writer.Write(bytes)
}

// DefaultFlushInterval is a reasonable default flush interval
const DefaultFlushInterval = time.Second / 30

// Rewritable is a single line of output that is rewritten in place.
// A nil Rewritable discards all writes.
type Rewritable struct {
	Writer io.Writer

	FlushInterval  time.Duration // minimum time between flushes of the progress
	lastFlush      time.Time     // last time we flushed
	longestContent int           // longest content ever flushed
	content        string        // current content
}

func (rw *Rewritable) Write(value string) {
	if rw == nil {
		return
	}
	rw.content = value
	rw.Flush(false)
}

func (rw *Rewritable) Flush(force bool) {
	if rw == nil || !(force || time.Since(rw.lastFlush) > rw.FlushInterval) {
		return
	}

	// determine the longest string we ever flushed to the output
	if len(rw.content) >= rw.longestContent {
		rw.longestContent = len(rw.content)
	}

	// add a blanking space behind the content
	blank := strings.Repeat(" ", rw.longestContent-len(rw.content))
	fmt.Fprintf(rw.Writer, "\r%s%s", rw.content, blank)

	rw.lastFlush = time.Now()
}

func (rw *Rewritable) Close() {
	if rw == nil {
		return
	}
	rw.content = ""
	rw.Flush(true)
	rw.Writer.Write([]byte("\r"))
}
