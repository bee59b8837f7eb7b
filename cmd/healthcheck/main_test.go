package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "127.0.0.1:8080"},
		{raw: "0.0.0.0:9090", want: "127.0.0.1:9090"},
		{raw: ":7000", want: "127.0.0.1:7000"},
		{raw: "10.0.0.5:8080", want: "10.0.0.5:8080"},
		{raw: "not-an-addr", want: "127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}
