package index

// Option configures an Index.
type Option func(*Index)

// WithMaxResults caps the number of matches a query returns. Values outside
// 1..MaxResults are ignored.
func WithMaxResults(n int) Option {
	return func(ix *Index) {
		if n > 0 && n <= MaxResults {
			ix.maxResults = n
		}
	}
}

// WithFuzzyMinLength skips the fuzzy tier for normalized queries shorter than
// n runes. Zero keeps the fuzzy tier enabled for every query.
func WithFuzzyMinLength(n int) Option {
	return func(ix *Index) {
		if n >= 0 {
			ix.fuzzyMinLength = n
		}
	}
}
