package asset

import (
	"errors"
	"fmt"
	"regexp"
)

// tickerRegex matches plain symbols (AAPL, BTC, XAU) and currency pairs
// (EUR/USD). Letters are any Unicode uppercase so local tickers pass too.
var tickerRegex = regexp.MustCompile(`^[\p{Lu}0-9.]{1,10}(/[\p{Lu}0-9.]{1,10})?$`)

// ErrInvalidTicker is returned when a ticker does not match the expected format.
var ErrInvalidTicker = errors.New("asset: invalid ticker format")

// ValidateTicker checks a ticker symbol.
func ValidateTicker(ticker string) error {
	if !tickerRegex.MatchString(ticker) {
		return fmt.Errorf("%w: %q (expected SYMBOL or BASE/QUOTE)", ErrInvalidTicker, ticker)
	}
	return nil
}
