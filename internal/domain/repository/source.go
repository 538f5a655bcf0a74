package repository

// Source identifies an external mention source.
type Source string

const (
	SourceTwitter  Source = "twitter"
	SourceFacebook Source = "facebook"
	SourceReviews  Source = "reviews"
	SourceSurveys  Source = "surveys"
	SourceAll      Source = "all" // filter value, not a real source
)

// IsValidSource returns true if s is a supported source.
func IsValidSource(s Source) bool {
	switch s {
	case SourceTwitter, SourceFacebook, SourceReviews, SourceSurveys, SourceAll:
		return true
	default:
		return false
	}
}

// DefaultSource returns the default mention source.
func DefaultSource() Source { return SourceTwitter }

// NormalizeSource converts raw string to a valid source (or default).
func NormalizeSource(s string) Source {
	if s == "" {
		return DefaultSource()
	}
	src := Source(s)
	if IsValidSource(src) {
		return src
	}
	return DefaultSource()
}
