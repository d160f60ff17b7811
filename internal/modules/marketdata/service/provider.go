package service

import (
	"context"

	"signal_gateway/internal/models"
)

// Provider — рыночные данные; конкретный вендор за интерфейсом, ядро провайдер-агностично.
type Provider interface {
	GetStockPrice(ctx context.Context, symbol string) (float64, error)
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
	GetIndicators(ctx context.Context, symbol, timeframe string) (*models.Indicators, error)
	GetMarketHours(ctx context.Context) (*models.MarketHours, error)
}
