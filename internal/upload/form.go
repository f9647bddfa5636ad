package upload

import (
	"fmt"
	"net/url"

	"github.com/example/bulk-relay/internal/util"
)

// EncodeForm serializes the supplied fields as an
// application/x-www-form-urlencoded body. Nil values are omitted entirely
// rather than sent as empty strings; every other value must be a scalar.
func EncodeForm(fields map[string]any) (string, error) {
	params := url.Values{}
	for key, value := range fields {
		if value == nil {
			continue
		}
		s, err := util.ScalarString(value)
		if err != nil {
			return "", fmt.Errorf("upload: field %q: %w", key, err)
		}
		params.Set(key, s)
	}
	return params.Encode(), nil
}
