// Package network holds the framing shared by the chain query client and
// server: every message is a little-endian uint32 length followed by the
// content.
package network

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxMessageSize bounds the content length accepted by ReadMessageWithContext.
const MaxMessageSize = 1 << 20

var ErrMessageTooLarge = errors.New("network: message exceeds maximum size")

// Message is one framed message read from a stream.
type Message struct {
	Size    uint32
	Content []byte
}

type readResult struct {
	msg *Message
	err error
}

// WriteMessageWithContext writes content as one frame. It returns early with
// ctx.Err() when ctx is cancelled; the write itself then continues in the
// background until the writer gives up.
func WriteMessageWithContext(ctx context.Context, w io.Writer, content []byte) error {
	if len(content) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(content))
	}

	done := make(chan error, 1)
	go func() {
		frame := make([]byte, 4+len(content))
		binary.LittleEndian.PutUint32(frame, uint32(len(content)))
		copy(frame[4:], content)

		if _, err := w.Write(frame); err != nil {
			done <- fmt.Errorf("failed to write message: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadMessageWithContext reads one frame. Frames announcing more than
// MaxMessageSize bytes are rejected before their content is read.
func ReadMessageWithContext(ctx context.Context, r io.Reader) (*Message, error) {
	done := make(chan readResult, 1)

	go func() {
		var header [4]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			done <- readResult{err: fmt.Errorf("failed to read message size: %w", err)}
			return
		}
		size := binary.LittleEndian.Uint32(header[:])
		if size > MaxMessageSize {
			done <- readResult{err: fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)}
			return
		}

		content := make([]byte, size)
		if _, err := io.ReadFull(r, content); err != nil {
			done <- readResult{err: fmt.Errorf("failed to read message content: %w", err)}
			return
		}
		done <- readResult{msg: &Message{Size: size, Content: content}}
	}()

	select {
	case result := <-done:
		return result.msg, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
