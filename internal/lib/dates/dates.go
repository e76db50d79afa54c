// Package dates содержит функции для разбора и форматирования дат,
// которые присылает платёжный провайдер, и для расчёта даты следующего
// платежа по интервалу тарифного плана.
package dates

import (
	"fmt"
	"time"
)

// Layout формат хранения дат в документе пользователя,
// например "Jan 2, 2025, 3:04:05 PM".
const Layout = "Jan 2, 2006, 3:04:05 PM"

// providerLayouts форматы, в которых провайдер присылает даты.
var providerLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseProviderTime разбирает дату из события провайдера,
// пробуя известные форматы по очереди.
func ParseProviderTime(value string) (time.Time, error) {
	const op = "dates.ParseProviderTime"
	for _, layout := range providerLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: unsupported date format %q", op, value)
}

// Format приводит время к формату хранения.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// AddInterval возвращает дату следующего платежа: момент оплаты,
// сдвинутый на один интервал тарифного плана. Неизвестный интервал
// оставляет дату без изменений.
func AddInterval(interval string, start time.Time) time.Time {
	switch interval {
	case "hourly":
		return start.Add(time.Hour)
	case "daily":
		return start.AddDate(0, 0, 1)
	case "weekly":
		return start.AddDate(0, 0, 7)
	case "monthly":
		return start.AddDate(0, 1, 0)
	case "quarterly":
		return start.AddDate(0, 3, 0)
	case "biannually":
		return start.AddDate(0, 6, 0)
	case "annually", "yearly":
		return start.AddDate(1, 0, 0)
	default:
		return start
	}
}
