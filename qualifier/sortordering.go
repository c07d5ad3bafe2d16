package qualifier

// Selector is the comparison mode for one SortOrdering term.
type Selector int

const (
	Asc Selector = iota
	Desc
	CaseInsensitiveAsc
	CaseInsensitiveDesc
)

// SortOrdering is one (key, selector) ordering term.
type SortOrdering struct {
	Key      string
	Selector Selector
}

// SortOrderings is an ordered list of SortOrdering terms.
type SortOrderings []SortOrdering

func Order(key string, selector Selector) SortOrdering {
	return SortOrdering{Key: key, Selector: selector}
}
