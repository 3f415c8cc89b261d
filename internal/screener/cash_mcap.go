package screener

import (
	"encoding/json"
	"fmt"

	"FinScreen/internal/domain/models"
	"FinScreen/pkg/logger"
)

const KindCashMcap = "CASH_MCAP"

var cashHeader = Header{
	{"symbol", "Symbol"},
	{"time", "Time"},
	{"cur_mcap", "Market Cap"},
	{"total_cash", "Total Cash"},
	{"price", "Price"},
	{"ftwh", "High"},
	{"ftwl", "Low"},
}

// CashRecord is a symbol whose total cash exceeds its market capitalization.
type CashRecord struct {
	Symbol    string  `json:"symbol"`
	Time      int64   `json:"time"`
	CurMcap   string  `json:"cur_mcap"`
	TotalCash string  `json:"total_cash"`
	Cash      int64   `json:"cash"`
	Mcap      int64   `json:"mcap"`
	Price     float64 `json:"price"`
	High      float64 `json:"ftwh"`
	Low       float64 `json:"ftwl"`
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v *rawValue) value() float64 {
	if v == nil || v.Raw == nil {
		return 0
	}
	return *v.Raw
}

// quoteSummary is the subset of a quote summary payload this screener reads.
type quoteSummary struct {
	SummaryDetail *struct {
		MarketCap        *rawValue `json:"marketCap"`
		PreviousClose    *rawValue `json:"previousClose"`
		FiftyTwoWeekHigh *rawValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  *rawValue `json:"fiftyTwoWeekLow"`
	} `json:"summaryDetail"`
	FinancialData *struct {
		TotalCash *rawValue `json:"totalCash"`
	} `json:"financialData"`
}

// CashMcap matches symbols trading below their cash position.
type CashMcap struct {
	Base
	results *resultSet[CashRecord]
}

func NewCashMcap(opts options, deps Deps) *CashMcap {
	return &CashMcap{Base: newBase(KindCashMcap, opts, deps)}
}

// Update requires the source and a non-empty record for every symbol.
func (s *CashMcap) Update(symbols []string, stats models.TickerStats) bool {
	src, ok := s.sourceReady(stats)
	if !ok {
		return false
	}
	for _, sym := range symbols {
		if _, ok := src.Record(sym); !ok {
			s.unavailable(fmt.Sprintf("data for ticker %s not updated in %s", sym, s.source))
			return false
		}
	}
	s.available()
	return true
}

func (s *CashMcap) Screen(symbols []string, stats models.TickerStats) {
	src := stats.Source(s.source)
	now := s.now()
	results := newResultSet[CashRecord](0)

	for _, sym := range symbols {
		var rec CashRecord
		var match bool
		err := eval(sym, func() error {
			var err error
			rec, match, err = s.evaluate(sym, src)
			return err
		})
		if err != nil {
			s.fault(err)
			continue
		}
		if !match {
			continue
		}
		rec.Time = now
		results.put(sym, rec)
		s.log.Info("new symbol found",
			logger.String("symbol", sym),
			logger.String("cur_mcap", rec.CurMcap),
			logger.String("total_cash", rec.TotalCash),
		)
		s.notifyMatch(map[string]string{
			"symbol":     sym,
			"cur_mcap":   rec.CurMcap,
			"total_cash": rec.TotalCash,
		})
	}

	s.results = results
}

func (s *CashMcap) evaluate(sym string, src *models.SourceStats) (CashRecord, bool, error) {
	raw, ok := src.Record(sym)
	if !ok {
		return CashRecord{}, false, ErrMissingRecord
	}
	var q quoteSummary
	if err := json.Unmarshal(raw, &q); err != nil {
		return CashRecord{}, false, fmt.Errorf("decode quote summary: %w", err)
	}

	var rec CashRecord
	if d := q.SummaryDetail; d != nil {
		rec.Mcap = int64(d.MarketCap.value())
		rec.Price = d.PreviousClose.value()
		rec.High = d.FiftyTwoWeekHigh.value()
		rec.Low = d.FiftyTwoWeekLow.value()
	}
	if f := q.FinancialData; f != nil {
		rec.Cash = int64(f.TotalCash.value())
	}
	if rec.Cash <= rec.Mcap {
		return CashRecord{}, false, nil
	}

	rec.Symbol = sym
	rec.CurMcap = HumanizeAmount(rec.Mcap)
	rec.TotalCash = HumanizeAmount(rec.Cash)
	return rec, true, nil
}

func (s *CashMcap) Screened() []any { return s.results.rows(cashHeader) }
