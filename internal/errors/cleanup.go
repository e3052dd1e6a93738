// Package errors provides cleanup helpers that log instead of dropping errors.
package errors

import (
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes c and logs msg at warn level if that fails. A nil c is
// a no-op. The store sink defers it around each batch write.
func DeferClose(logger zerolog.Logger, c io.Closer, msg string) {
	if c == nil {
		return
	}
	err := c.Close()
	if err == nil {
		return
	}
	logger.Warn().Err(err).Msg(msg)
}
