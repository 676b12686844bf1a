package presencesvc

import (
	"context"
	"fmt"
	"strings"

	"priceflow/internal/core/port"
)

// handlePriceCommand implements "/price [asset?]" from spec.md §4.4:
// resolves the asset (default: this worker's own), replies with
// formatted price, 1h/12h/24h change with trend glyph, and cross-rates
// to BTC/ETH/SOL excluding the self-rate.
func (s *Service) handlePriceCommand(ctx context.Context, inv port.CommandInvocation) (string, bool) {
	asset := strings.ToUpper(strings.TrimSpace(inv.Args["asset"]))
	if asset == "" {
		asset = s.asset
	}

	wanted := append([]string{asset}, referenceAssets...)
	prices := make(map[string]float64, len(wanted))

	snap, _, err := s.reader.Read()
	if err == nil {
		for _, a := range wanted {
			if entry, ok := snap.Prices[a]; ok {
				prices[a] = entry.Price
			}
		}
	}
	for _, a := range wanted {
		if _, ok := prices[a]; ok {
			continue
		}
		tick, ok, err := s.store.LatestTick(ctx, a)
		if err == nil && ok {
			prices[a] = tick.Price
		}
	}

	currentPrice, ok := prices[asset]
	if !ok {
		return fmt.Sprintf("no price data available for %s", asset), true
	}

	changes := s.computeChanges(ctx, asset, currentPrice)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", asset, FormatPrice(currentPrice))
	for _, label := range []string{"1h", "12h", "24h"} {
		c := changes[label]
		if !c.available {
			fmt.Fprintf(&b, "%s: unavailable\n", label)
			continue
		}
		fmt.Fprintf(&b, "%s: %s %s\n", label, FormatPercent(c.pct), TrendGlyph(c.pct))
	}

	for _, quote := range referenceAssets {
		if quote == asset {
			continue
		}
		if rate := crossRatePanel(asset, quote, prices); rate != "" {
			b.WriteString(rate)
			b.WriteByte('\n')
		}
	}

	return strings.TrimRight(b.String(), "\n"), false
}
