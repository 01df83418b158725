// Package alpaca implements the market.Provider interface against the
// Alpaca trading and market-data APIs. Credentials come from the
// standard APCA_* environment variables the SDK reads on its own.
package alpaca

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/RJDCTM/autotrader/internal/market"
	"github.com/RJDCTM/autotrader/internal/models"
)

type Provider struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
}

var _ market.Provider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{
		mdClient:    marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{}),
	}
}

func (p *Provider) GetPrice(ticker string) (decimal.Decimal, error) {
	trade, err := p.mdClient.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return decimal.Zero, err
	}
	if trade == nil {
		return decimal.Zero, fmt.Errorf("no trade data for %s", ticker)
	}
	return decimal.NewFromFloat(trade.Price), nil
}

func (p *Provider) GetBars(ticker string, limit int) ([]models.Bar, error) {
	// Daily bars; request extra calendar days to cover weekends and
	// holidays, then trim to the requested count.
	start := time.Now().AddDate(0, 0, -limit*2)
	bars, err := p.mdClient.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
	})
	if err != nil {
		return nil, err
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	result := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		result = append(result, models.Bar{
			Time:   b.Timestamp,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: int64(b.Volume),
		})
	}
	return result, nil
}

func (p *Provider) GetEquity() (decimal.Decimal, error) {
	acct, err := p.tradeClient.GetAccount()
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Equity, nil
}

func (p *Provider) GetClock() (*models.Clock, error) {
	c, err := p.tradeClient.GetClock()
	if err != nil {
		return nil, err
	}
	return &models.Clock{
		Timestamp: c.Timestamp,
		IsOpen:    c.IsOpen,
		NextOpen:  c.NextOpen,
		NextClose: c.NextClose,
	}, nil
}

func (p *Provider) ListPositions() ([]models.BrokerPosition, error) {
	alpacaPositions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, err
	}

	var result []models.BrokerPosition
	for _, x := range alpacaPositions {
		// The SDK exposes some fields as decimal pointers.
		marketValue := decimal.Zero
		if x.MarketValue != nil {
			marketValue = *x.MarketValue
		}
		result = append(result, models.BrokerPosition{
			Symbol:        x.Symbol,
			Qty:           x.Qty,
			AvgEntryPrice: x.AvgEntryPrice,
			MarketValue:   marketValue,
		})
	}
	return result, nil
}
