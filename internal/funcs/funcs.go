package funcs

import (
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var TemplateFuncs = template.FuncMap{
	"now":         time.Now,
	"formatTime":  formatTime,
	"formatMoney": FormatMoney,
	"upper":       strings.ToUpper,
	"lower":       strings.ToLower,
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

// FormatMoney renders an amount with thousand separators for emails,
// e.g. 12345.6 -> "12,345.60".
func FormatMoney(amount float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.2f", amount)
}
