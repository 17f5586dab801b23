package models

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders an amount in US dollars with thousands separators,
// dropping the cents when the amount is whole: "$50,000", "$1,150.50".
func FormatMoney(v float64) string {
	if v == math.Trunc(v) {
		return moneyPrinter.Sprintf("$%d", int64(v))
	}
	return moneyPrinter.Sprintf("$%.2f", v)
}
