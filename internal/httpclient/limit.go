package httpclient

import (
	"errors"
	"fmt"
	"io"
)

// ErrBodyTooLarge reports a provider response bigger than the adapter's cap.
// Adapters check it with errors.Is to report the cap instead of a raw read
// failure.
var ErrBodyTooLarge = errors.New("response body too large")

// ReadBody drains r up to max bytes. Oversized bodies fail with
// ErrBodyTooLarge wrapped with the cap; max <= 0 reads everything.
func ReadBody(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w (over %d bytes)", ErrBodyTooLarge, max)
	}
	return data, nil
}
