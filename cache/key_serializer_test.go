package cache

import (
	"testing"

	"github.com/google/uuid"
)

func TestDefaultKeySerializer(t *testing.T) {
	id := uuid.MustParse("6f1c2a7e-8a0b-4a55-9d1e-2c1f3b4a5d6e")
	s := NewDefaultKeySerializer()

	tests := []struct {
		name      string
		namespace string
		args      []any
		want      string
	}{
		{"namespace only", "products", nil, "products"},
		{"string arg", "product", []any{"abc"}, "product:abc"},
		{"uuid arg", "product", []any{id}, "product:" + id.String()},
		{"int arg", "page", []any{3}, "page:3"},
		{"nil arg", "product", []any{nil}, "product:nil"},
		{"multiple args", "cart", []any{"u1", 2}, "cart:u1:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SerializeKey(tt.namespace, tt.args...); got != tt.want {
				t.Errorf("SerializeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProductKeys(t *testing.T) {
	if ProductListKey != "products:all" {
		t.Errorf("unexpected list key %q", ProductListKey)
	}
	id := uuid.New()
	if got := ProductKey(id); got != "product:"+id.String() {
		t.Errorf("unexpected product key %q", got)
	}
}
