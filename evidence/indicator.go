package evidence

import "errors"

var ErrEmptyPattern = errors.New("indicator pattern is empty")

// Indicator is a threat intelligence pattern produced by an upstream module
type Indicator struct {
	// name of the threat
	Name string
	// regular expression relevant to the threat
	Pattern string
	// path to the indicator data (e.g. file)
	SourcePath string
}

func (i Indicator) Validate() error {
	if i.Pattern == "" {
		return ErrEmptyPattern
	}
	return nil
}

// Patterns projects indicators into the filter pattern list sent to the remote service, preserving order
func Patterns(indicators []Indicator) []string {
	res := make([]string, len(indicators))
	for i, indicator := range indicators {
		res[i] = indicator.Pattern
	}
	return res
}
