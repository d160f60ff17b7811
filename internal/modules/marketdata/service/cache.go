package service

import (
	"sync"
	"time"
)

type quoteEntry struct {
	price float64
	at    time.Time
}

// QuoteCache — простой TTL-кэш котировок. Пишет ws-стрим и REST-клиент,
// читает enrichment через клиента.
type QuoteCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]quoteEntry
	now  func() time.Time
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl:  ttl,
		data: make(map[string]quoteEntry),
		now:  time.Now,
	}
}

func (c *QuoteCache) Put(symbol string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = quoteEntry{price: price, at: c.now()}
}

func (c *QuoteCache) Get(symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[symbol]
	if !ok || c.now().Sub(e.at) > c.ttl {
		return 0, false
	}
	return e.price, true
}

// Symbols — текущее множество тикеров в кэше; стрим переподписывается по нему.
func (c *QuoteCache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.data))
	for s := range c.data {
		out = append(out, s)
	}
	return out
}
