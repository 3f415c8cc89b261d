package tickers

import (
	"context"
	"fmt"

	xhttp "FinScreen/pkg/http"
)

// HTTPProvider fetches ticker groups from a JSON endpoint returning
// {"ALL": ["AAPL", ...], "OTC": [...]}.
type HTTPProvider struct {
	url    string
	client *xhttp.Client
}

func NewHTTPProvider(url string, client *xhttp.Client) *HTTPProvider {
	return &HTTPProvider{url: url, client: client}
}

func (p *HTTPProvider) TickerLists(ctx context.Context) (map[string][]string, error) {
	var lists map[string][]string
	if err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{URL: p.url}, &lists); err != nil {
		return nil, fmt.Errorf("fetch ticker lists: %w", err)
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("ticker endpoint %s returned no groups", p.url)
	}
	return clean(lists), nil
}
