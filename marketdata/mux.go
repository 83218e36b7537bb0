package marketdata

import (
	"context"
	"fmt"
	"strings"
)

// Mux routes requests by the exchange suffix of their symbol: "BTCUSDT.BINANCE"
// goes to the provider handling "BINANCE", with the symbol "BTCUSDT". Other
// symbols go, unchanged, to the default provider.
type Mux struct {
	def    Provider
	routes map[string]Provider
}

// NewMux returns a mux sending unrouted symbols to def, which may be nil.
func NewMux(def Provider) *Mux {
	return &Mux{def: def, routes: make(map[string]Provider)}
}

// Handle routes symbols ending with "."+exchange to p.
func (m *Mux) Handle(exchange string, p Provider) {
	m.routes[strings.ToUpper(exchange)] = p
}

// Bars implements Provider.
func (m *Mux) Bars(ctx context.Context, r Request) ([]Bar, error) {
	if i := strings.LastIndexByte(r.Symbol, '.'); i >= 0 {
		if p, ok := m.routes[strings.ToUpper(r.Symbol[i+1:])]; ok {
			r.Symbol = r.Symbol[:i]
			return p.Bars(ctx, r)
		}
	}
	if m.def == nil {
		return nil, fmt.Errorf("no provider for %s", r.Symbol)
	}
	return m.def.Bars(ctx, r)
}
