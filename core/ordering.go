package core

// Ordering is one sort criterion of a listing, parsed from `?ordering=kana,-attend_no`.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}
