package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteCacheTTL(t *testing.T) {
	now := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	c := NewQuoteCache(30 * time.Second)
	c.now = func() time.Time { return now }

	c.Put("SPY", 450.25)

	px, ok := c.Get("SPY")
	assert.True(t, ok)
	assert.Equal(t, 450.25, px)

	_, ok = c.Get("QQQ")
	assert.False(t, ok)

	// протухшая котировка не отдаётся
	now = now.Add(31 * time.Second)
	_, ok = c.Get("SPY")
	assert.False(t, ok)
}

func TestQuoteCacheSymbols(t *testing.T) {
	c := NewQuoteCache(time.Minute)
	c.Put("SPY", 450)
	c.Put("QQQ", 380)
	assert.ElementsMatch(t, []string{"SPY", "QQQ"}, c.Symbols())
}
