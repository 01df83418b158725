// Package market defines the broker-facing data interface. The engine
// depends only on this; the Alpaca implementation lives in a subpackage
// so tests can substitute a fake without network access.
package market

import (
	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/models"
)

// Provider supplies market data and account state. Implementations must
// be safe for use from a single goroutine; the engine serializes calls.
type Provider interface {
	// GetPrice returns the latest trade price for a ticker.
	GetPrice(ticker string) (decimal.Decimal, error)

	// GetBars returns up to limit daily bars, oldest first.
	GetBars(ticker string, limit int) ([]models.Bar, error)

	// GetEquity returns current account equity.
	GetEquity() (decimal.Decimal, error)

	// GetClock returns the market session status.
	GetClock() (*models.Clock, error)

	// ListPositions returns the broker's view of open positions.
	ListPositions() ([]models.BrokerPosition, error)
}
