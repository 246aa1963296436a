package pipeline

import (
	"strings"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// Render formats an entry as `《title》link` followed by a newline. Missing
// fields render as empty strings; line breaks inside a field are folded
// so every record is exactly one line.
func Render(msg domain.RoutedMessage) domain.FormattedRecord {
	return domain.FormattedRecord{
		Category: msg.Category,
		EntryID:  msg.Entry.ID,
		Text:     "《" + singleLine(msg.Entry.Title) + "》" + singleLine(msg.Entry.Link) + "\n",
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
