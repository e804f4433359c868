// Package sink implements destinations for exported statements.
package sink

import (
	"io"
	"iter"

	"github.com/FAU-CDI/pgrdf/internal/rdf"
	"github.com/FAU-CDI/pgrdf/internal/stats"
)

// Sink receives statements.
type Sink interface {
	io.Closer

	// Write writes a single statement.
	Write(statement rdf.Statement) error
}

// progressInterval is the number of statements between progress updates
const progressInterval = 1000

// Drain writes all statements of seq into sink.
// The sink is not closed.
func Drain(seq iter.Seq2[rdf.Statement, error], sink Sink, st *stats.Stats) (count int, err error) {
	for statement, err := range seq {
		if err != nil {
			return count, err
		}
		if err := sink.Write(statement); err != nil {
			return count, err
		}

		count++
		if count%progressInterval == 0 {
			st.SetCT(count, 0)
		}
	}
	st.SetCT(count, 0)
	return count, nil
}
