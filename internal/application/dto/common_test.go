package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_DefaultPage(t *testing.T) {
	cases := []struct {
		in   PageRequest
		want PageRequest
	}{
		{PageRequest{}, PageRequest{Limit: DefaultPageLimit}},
		{PageRequest{Limit: 500, Offset: -3}, PageRequest{Limit: MaxPageLimit}},
		{PageRequest{Limit: 5, Offset: 10}, PageRequest{Limit: 5, Offset: 10}},
	}
	for _, tc := range cases {
		got := tc.in
		got.DefaultPage()
		assert.Equal(t, tc.want, got)
	}
}
