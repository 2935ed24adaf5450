// Package bodyreader assembles a request body delivered by the transport
// in arbitrarily sized chunks into a single buffer and decodes it as a
// JSON object. It is the only place in the service that consumes raw
// request bytes.
package bodyreader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedBody is returned when the assembled bytes do not decode as
// a JSON object. An empty body is malformed too.
var ErrMalformedBody = errors.New("malformed request body")

// ErrStreamAborted is returned when the connection drops before the body
// is fully delivered.
var ErrStreamAborted = errors.New("request stream aborted")

const defaultChunkSize = 4096

// Assembler accumulates body chunks and decodes the complete buffer.
// A single Assembler is safe for concurrent use; each call owns its own
// buffer and produces exactly one outcome.
type Assembler struct {
	chunkSize int
}

// Option customizes an Assembler.
type Option func(*Assembler)

// WithChunkSize sets the size of the read chunks. Values below one are
// ignored.
func WithChunkSize(chunkSize int) Option {
	return func(a *Assembler) {
		if chunkSize > 0 {
			a.chunkSize = chunkSize
		}
	}
}

// New creates an Assembler.
func New(optionsProto ...Option) *Assembler {
	assembler := &Assembler{
		chunkSize: defaultChunkSize,
	}
	for _, protoOption := range optionsProto {
		protoOption(assembler)
	}

	return assembler
}

// Assemble reads reader to EOF chunk by chunk and decodes the assembled
// buffer into target. It fails with ErrStreamAborted when the reader
// errors or ctx is canceled before EOF, and with ErrMalformedBody when
// the complete buffer is not exactly one JSON value; bytes trailing the
// value make the whole buffer malformed. The target is untouched on
// failure paths that precede decoding.
func (a *Assembler) Assemble(ctx context.Context, reader io.Reader, target interface{}) error {
	raw, err := a.readAll(ctx, reader)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	return nil
}

func (a *Assembler) readAll(ctx context.Context, reader io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, a.chunkSize)

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrStreamAborted, ctx.Err())
		default:
		}

		n, err := reader.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStreamAborted, err)
		}
	}
}
