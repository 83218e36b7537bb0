// Package portfolio turns a ledger of buy and sell transactions plus daily
// price bars into the two series a portfolio chart needs: the market value of
// the portfolio over time and its cost basis over time.
//
// The main pieces are:
//   - Holding and Transaction: the ledger of one symbol, in its native currency.
//   - Replay and CostBasisAt: weighted average cost basis at any point in time.
//   - CurrencyNormalizer: converts native series to the display currency.
//   - Aggregator: scales prices by the position held, converts, and sums every
//     holding on the time axis they all share.
//
// Everything in this package is a pure computation over already fetched
// series (see package series). Fetching belongs to package marketdata.
package portfolio
