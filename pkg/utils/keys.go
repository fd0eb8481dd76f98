package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// CacheKey builds a key from an operation name and its parameters.
// Parameters are lower-cased and trimmed so equivalent queries share an entry.
func CacheKey(operation string, params ...string) string {
	if len(params) == 0 {
		return operation
	}
	normalized := make([]string, len(params))
	for i, p := range params {
		normalized[i] = strings.ToLower(strings.TrimSpace(p))
	}
	joined := strings.Join(normalized, ":")
	if len(joined) > 64 {
		joined = HashString(joined)
	}
	return operation + ":" + joined
}
