package ledger

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Currency struct {
	Name   string
	Symbol string
}

var printer = message.NewPrinter(language.English)

// FormatAmount renders amount with two decimals, grouped thousands and the
// currency name, e.g. "1,234.50 Gold".
func (c Currency) FormatAmount(amount decimal.Decimal) string {
	return printer.Sprintf("%.2f %s", amount.Round(2).InexactFloat64(), c.Name)
}

// FormatAmountWithSymbol renders amount as "1,234.50G".
func (c Currency) FormatAmountWithSymbol(amount decimal.Decimal) string {
	return printer.Sprintf("%.2f%s", amount.Round(2).InexactFloat64(), c.Symbol)
}
