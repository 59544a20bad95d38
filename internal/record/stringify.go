package record

import (
	"fmt"

	"github.com/spf13/cast"
)

// Stringify converts typed Go literals to their storage form. nil becomes the
// empty string.
func Stringify(values ...any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d (%T)", ErrUnencodable, i, v)
		}
		out[i] = s
	}
	return out, nil
}
