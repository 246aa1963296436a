package domain

// RoutedMessage is an entry bound to the category the router selected.
type RoutedMessage struct {
	Entry    Entry
	Category Category
}

// FormattedRecord is the textual rendering of an entry handed to a sink.
type FormattedRecord struct {
	Category Category
	EntryID  string
	Text     string
}
