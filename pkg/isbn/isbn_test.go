package isbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "hyphens", input: "978-1-4215-0605-0", expected: "9781421506050"},
		{name: "spaces", input: "978 1421506050", expected: "9781421506050"},
		{name: "isbn prefix", input: "ISBN:9781421506050", expected: "9781421506050"},
		{name: "lowercase x", input: "080442957x", expected: "080442957X"},
		{name: "already clean", input: "9781421506050", expected: "9781421506050"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("978-1-4215-0605-0"))
	assert.True(t, Valid("0-8044-2957-X"))
	assert.False(t, Valid("9781421506059"))
	assert.False(t, Valid("0804429572"))
	assert.False(t, Valid("12345"))
	assert.False(t, Valid(""))
}

func TestValid10_XPlacement(t *testing.T) {
	// X is only a valid checksum character in the final position.
	assert.False(t, Valid10("0X04429571"))
}

func TestTo13(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "isbn-10", input: "1421506054", expected: "9781421506050"},
		{name: "isbn-10 hyphens", input: "1-4215-0605-4", expected: "9781421506050"},
		{name: "already 13", input: "9781421506050", expected: "9781421506050"},
		{name: "garbage", input: "not-an-isbn", expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, To13(tc.input))
		})
	}
}
