package ai

import (
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// DefaultEncoding is the BPE used to estimate prompt sizes for any backend.
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates how many tokens a prompt uses.
type TokenCounter interface {
	Count(text string) int
}

// ApproxCounter assumes four runes per token.
type ApproxCounter struct{}

func (ApproxCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// TiktokenCounter counts with a tiktoken encoding, loaded on first use.
// When the encoding cannot be loaded it falls back to ApproxCounter.
type TiktokenCounter struct {
	encoding string
	logger   *zap.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

func NewTiktokenCounter(encoding string, logger *zap.Logger) *TiktokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TiktokenCounter{encoding: encoding, logger: logger}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.logger.Warn("tiktoken encoding unavailable, estimating tokens from length",
				zap.String("encoding", c.encoding),
				zap.Error(err),
			)
			return
		}
		c.enc = enc
	})

	if c.enc == nil {
		return ApproxCounter{}.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
