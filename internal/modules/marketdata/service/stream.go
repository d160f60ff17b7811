package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"signal_gateway/pkg/logger"
)

// PriceStream держит один WebSocket к провайдеру и льёт котировки в кэш.
// Подписка динамическая: раз в интервал пересобираем список по содержимому кэша
// (туда попадает всё, что enrichment недавно спрашивал).
type PriceStream struct {
	url       string
	cache     *QuoteCache
	dialer    *websocket.Dialer
	onConnect func(bool)
}

func NewPriceStream(url string, cache *QuoteCache, onConnect func(bool)) *PriceStream {
	return &PriceStream{
		url:       url,
		cache:     cache,
		dialer:    websocket.DefaultDialer,
		onConnect: onConnect,
	}
}

// Run — цикл с реконнектом; живёт до отмены контекста.
func (s *PriceStream) Run(ctx context.Context) {
	if s.url == "" {
		logger.Info("price stream disabled: no stream url")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			logger.Warn("[WS] dial error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		logger.Info("[WS] connected %s", s.url)
		if s.onConnect != nil {
			s.onConnect(true)
		}

		s.readLoop(ctx, conn)

		if s.onConnect != nil {
			s.onConnect(false)
		}
		_ = conn.Close()
	}
}

func (s *PriceStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	// keepalive-пинг + периодическая переподписка
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ping := time.NewTicker(20 * time.Second)
		resub := time.NewTicker(30 * time.Second)
		defer ping.Stop()
		defer resub.Stop()

		s.subscribe(conn)
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-stop:
				return
			case <-ping.C:
				_ = conn.WriteJSON(map[string]string{"op": "ping"})
			case <-resub.C:
				s.subscribe(conn)
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("[WS] read error: %v", err)
			return
		}

		var frame struct {
			Symbol string  `json:"symbol"`
			Price  float64 `json:"price"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Symbol == "" || frame.Price <= 0 {
			continue
		}
		s.cache.Put(frame.Symbol, frame.Price)
	}
}

func (s *PriceStream) subscribe(conn *websocket.Conn) {
	symbols := s.cache.Symbols()
	if len(symbols) == 0 {
		return
	}
	sub := map[string]any{
		"op":      "subscribe",
		"symbols": symbols,
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Warn("[WS] subscribe error: %v", err)
	}
}
