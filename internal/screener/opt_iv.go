package screener

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"FinScreen/internal/domain/models"
	"FinScreen/pkg/logger"
)

const (
	KindOptIV = "OPT_IV"

	optTopN         = 25
	expiryCodeWidth = 6
)

var optHeader = Header{
	{"symbol", "Symbol"},
	{"time", "Time"},
	{"strike", "Strike"},
	{"price", "Price"},
	{"iv", "IV"},
	{"oi", "OI"},
	{"expiry", "Expiry"},
}

// OptRecord is the nearest-expiry, first out-of-the-money put of a symbol.
type OptRecord struct {
	Symbol string  `json:"symbol"`
	Time   int64   `json:"time"`
	Strike float64 `json:"strike"`
	Price  float64 `json:"price"`
	IV     float64 `json:"iv"`
	Expiry string  `json:"expiry"`
	OI     int64   `json:"oi"`
}

type optionContract struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            *float64 `json:"strike"`
	LastPrice         *float64 `json:"lastPrice"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	OpenInterest      *float64 `json:"openInterest"`
	InTheMoney        *bool    `json:"inTheMoney"`
}

// expiryGroup is one expiration of an options chain; groups are nearest first.
type expiryGroup struct {
	Puts []optionContract `json:"puts"`
}

var (
	errMissingIV     = errors.New("put has no impliedVolatility")
	errMissingStrike = errors.New("put has no strike")
)

// OptIV ranks symbols by the implied volatility of their first out-of-the-money put.
type OptIV struct {
	Base
	results *resultSet[OptRecord]
}

func NewOptIV(opts options, deps Deps) *OptIV {
	return &OptIV{Base: newBase(KindOptIV, opts, deps)}
}

// Update only requires the source to be loaded and not mid-refresh.
// Symbols without a chain are skipped at screen time.
func (s *OptIV) Update(_ []string, stats models.TickerStats) bool {
	if _, ok := s.sourceReady(stats); !ok {
		return false
	}
	s.available()
	return true
}

func (s *OptIV) Screen(symbols []string, stats models.TickerStats) {
	src := stats.Source(s.source)
	now := s.now()

	var found []OptRecord
	for _, sym := range symbols {
		var rec OptRecord
		var ok bool
		err := eval(sym, func() error {
			var err error
			rec, ok, err = s.evaluate(sym, src)
			return err
		})
		if err != nil {
			s.fault(err)
			continue
		}
		if !ok {
			continue
		}
		rec.Time = now
		found = append(found, rec)
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].IV > found[j].IV })
	if len(found) > optTopN {
		found = found[:optTopN]
	}

	results := newResultSet[OptRecord](len(found))
	for _, rec := range found {
		results.put(rec.Symbol, rec)
		s.log.Info("new symbol found",
			logger.String("symbol", rec.Symbol),
			logger.Any("strike", rec.Strike),
			logger.Any("iv", rec.IV),
			logger.String("expiry", rec.Expiry),
		)
		s.notifyMatch(map[string]string{
			"symbol": rec.Symbol,
			"strike": strconv.FormatFloat(rec.Strike, 'f', -1, 64),
			"iv":     strconv.FormatFloat(rec.IV, 'f', 2, 64),
			"expiry": rec.Expiry,
		})
	}
	s.results = results
}

// evaluate returns ok=false without error when the symbol has no chain or no
// qualifying put.
func (s *OptIV) evaluate(sym string, src *models.SourceStats) (OptRecord, bool, error) {
	raw, ok := src.Record(sym)
	if !ok {
		return OptRecord{}, false, nil
	}
	var chain []expiryGroup
	if err := json.Unmarshal(raw, &chain); err != nil {
		return OptRecord{}, false, fmt.Errorf("decode options chain: %w", err)
	}
	if len(chain) == 0 || len(chain[0].Puts) == 0 {
		return OptRecord{}, false, nil
	}

	put, ok := firstOutOfTheMoney(chain[0].Puts)
	if !ok {
		s.log.Debug("no qualifying contract", logger.String("symbol", sym))
		return OptRecord{}, false, nil
	}
	if put.ImpliedVolatility == nil {
		return OptRecord{}, false, errMissingIV
	}
	if put.Strike == nil {
		return OptRecord{}, false, errMissingStrike
	}

	rec := OptRecord{
		Symbol: sym,
		Strike: *put.Strike,
		IV:     round2(*put.ImpliedVolatility),
		Expiry: expiryCode(put.ContractSymbol, sym),
	}
	if put.LastPrice != nil {
		rec.Price = round2(*put.LastPrice)
	}
	if put.OpenInterest != nil {
		rec.OI = int64(*put.OpenInterest)
	}
	return rec, true, nil
}

// firstOutOfTheMoney returns the first put in listed order flagged
// inTheMoney=false. A put without the flag does not qualify.
func firstOutOfTheMoney(puts []optionContract) (optionContract, bool) {
	for _, p := range puts {
		if p.InTheMoney != nil && !*p.InTheMoney {
			return p, true
		}
	}
	return optionContract{}, false
}

// expiryCode slices the date code that follows the underlying in an OCC
// contract symbol, e.g. AAPL210416P00120000 -> 210416.
func expiryCode(contract, underlying string) string {
	start := len(underlying)
	if start >= len(contract) {
		return ""
	}
	end := min(start+expiryCodeWidth, len(contract))
	return contract[start:end]
}

func (s *OptIV) Screened() []any { return s.results.rows(optHeader) }
