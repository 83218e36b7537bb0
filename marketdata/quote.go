package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Quoter returns the latest traded price of a symbol.
type Quoter interface {
	Quote(ctx context.Context) (decimal.Decimal, error)
}

// JSONQuoter reads the latest price from a JSON document at URL, extracting
// it with the JSONPath expression Path. For instance the path
// "$.series.intraday.data[-1:][1]" reads the second item of the last entry.
type JSONQuoter struct {
	URL    string
	Path   string
	Client *http.Client // http.DefaultClient if nil
}

// Quote implements Quoter.
func (q JSONQuoter) Quote(ctx context.Context) (decimal.Decimal, error) {
	client := q.Client
	if client == nil {
		client = http.DefaultClient
	}
	var jobj any
	if err := jwget(ctx, client, q.URL, &jobj); err != nil {
		return decimal.Zero, errors.Wrapf(err, "quote %s", q.URL)
	}
	jval, err := jsonpath.Get(q.Path, jobj)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "quote %s: evaluating %q", q.URL, q.Path)
	}
	// jsonpath returns a list for filters and slices: keep the first answer.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	var v decimal.Decimal
	switch x := jval.(type) {
	case float64:
		v = decimal.NewFromFloat(x)
	case string:
		// some sources return european formatted strings
		x = strings.ReplaceAll(x, ",", ".")
		x = strings.ReplaceAll(x, " ", "")
		if v, err = decimal.NewFromString(x); err != nil {
			return decimal.Zero, errors.Wrapf(err, "quote %s: invalid value", q.URL)
		}
	default:
		return decimal.Zero, fmt.Errorf("quote %s: %q is not a number: %v", q.URL, q.Path, jval)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("quote %s: no price, got %s", q.URL, v)
	}
	return v, nil
}

// jwget performs an HTTP GET request and unmarshals the JSON response into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(data)
}
