package cache

import (
	"fmt"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = ":"

const (
	// ProductListKey holds the full product collection.
	ProductListKey = "products" + KeySeparator + "all"

	productNamespace = "product"
)

// KeySerializer builds a cache key from a namespace and its arguments.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

type defaultKeySerializer struct{}

// NewDefaultKeySerializer returns the serializer used for catalog keys.
func NewDefaultKeySerializer() KeySerializer {
	return defaultKeySerializer{}
}

// SerializeKey joins the namespace and the string form of each argument.
// Stringers are rendered through String so ids print in canonical form.
func (defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)
	for _, arg := range args {
		parts = append(parts, serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func serializeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ProductKey returns the key for a single product.
func ProductKey(id any) string {
	return defaultKeySerializer{}.SerializeKey(productNamespace, id)
}
