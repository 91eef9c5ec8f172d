package web

import (
	"fmt"
	"time"
)

var monthsPtBR = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// formatDate renders t as "25 mar 2021".
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), monthsPtBR[t.Month()-1], t.Year())
}

// formatDateTime renders t as "25 mar 2021, às 19:25".
func formatDateTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%s, às %s", formatDate(t), t.Format("15:04"))
}

func readingLabel(minutes int) string {
	if minutes < 1 {
		return "menos de 1 min"
	}
	return fmt.Sprintf("%d min", minutes)
}
