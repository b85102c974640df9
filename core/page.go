package core

// Page is the paginated envelope returned by the upstream list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Items returns the page results, never nil.
func (p Page[T]) Items() []T {
	if p.Results == nil {
		return []T{}
	}
	return p.Results
}

// Clone returns a copy that does not share its results with p.
func (p Page[T]) Clone() Page[T] {
	c := p
	c.Results = append(make([]T, 0, len(p.Results)), p.Results...)
	return c
}
