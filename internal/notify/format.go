package notify

import (
	"strconv"
	"strings"

	"shopbuzz/internal/order"
)

// Template placeholders recognized by RenderBody.
const (
	PlaceholderStoreName = "[STORE_NAME]"
	PlaceholderItems     = "[ITEMS]"
	PlaceholderAmount    = "[AMOUNT]"
)

// RenderBody substitutes order fields into a notification body template.
//
// Only the FIRST occurrence of each placeholder is replaced. That matches the
// behavior users have been seeing since the first release; a template that
// repeats a placeholder keeps the later occurrences verbatim.
//
// Amounts always render with exactly two decimals. Absent placeholders are
// left alone; there is no error path.
func RenderBody(template string, o order.Order) string {
	body := strings.Replace(template, PlaceholderStoreName, o.StoreName, 1)
	body = strings.Replace(body, PlaceholderItems, strconv.Itoa(o.Items), 1)
	body = strings.Replace(body, PlaceholderAmount, strconv.FormatFloat(o.Amount, 'f', 2, 64), 1)
	return body
}
