package models

// SequenceKind identifies which daily counter a generated number comes from.
type SequenceKind string

const (
	SequenceKindOrder   SequenceKind = "order"
	SequenceKindInvoice SequenceKind = "invoice"
)

// SequencePrefix maps a kind to the visible prefix of generated numbers.
var SequencePrefix = map[SequenceKind]string{
	SequenceKindOrder:   "ORD",
	SequenceKindInvoice: "FACT",
}

// IsValidSequenceKind checks if the provided kind string is a valid SequenceKind.
func IsValidSequenceKind(kind string) bool {
	switch SequenceKind(kind) {
	case SequenceKindOrder, SequenceKindInvoice:
		return true
	default:
		return false
	}
}
