package chart

import (
	"math"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	printerOnce sync.Once
	printer     *message.Printer
)

func tickPrinter() *message.Printer {
	printerOnce.Do(func() {
		printer = message.NewPrinter(language.English)
	})
	return printer
}

// FormatTick renders a tick value with thousands grouping. Integral steps
// print no decimals; fractional steps print at most two.
func FormatTick(v, step float64) string {
	if v == 0 {
		v = 0 // -0 → 0
	}
	digits := 0
	if step > 0 && step != math.Trunc(step) {
		digits = 2
	}
	return tickPrinter().Sprint(number.Decimal(v, number.MaxFractionDigits(digits)))
}

// FormatValue formats a measured value with up to two decimals.
func FormatValue(v float64) string {
	return tickPrinter().Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}
