// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		t.Setenv("ASF_TEST_STR", "value")
		assert.Equal(t, "value", ParseString("ASF_TEST_STR", "fallback"))
	})
	t.Run("unset", func(t *testing.T) {
		assert.Equal(t, "fallback", ParseString("ASF_TEST_STR_UNSET", "fallback"))
	})
	t.Run("empty uses default", func(t *testing.T) {
		t.Setenv("ASF_TEST_STR", "")
		assert.Equal(t, "fallback", ParseString("ASF_TEST_STR", "fallback"))
	})
	t.Run("sensitive value still returned", func(t *testing.T) {
		t.Setenv("ASF_API_TOKEN", "s3cret")
		assert.Equal(t, "s3cret", ParseString("ASF_API_TOKEN", ""))
	})
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  int
	}{
		{"valid", "42", true, 42},
		{"negative", "-7", true, -7},
		{"invalid", "forty-two", true, 10},
		{"empty", "", true, 10},
		{"unset", "", false, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("ASF_TEST_INT", tt.value)
			}
			assert.Equal(t, tt.want, ParseInt("ASF_TEST_INT", 10))
		})
	}
}

func TestParseInt64(t *testing.T) {
	t.Setenv("ASF_TEST_INT64", "8388608")
	assert.Equal(t, int64(8388608), ParseInt64("ASF_TEST_INT64", 1))

	t.Setenv("ASF_TEST_INT64", "big")
	assert.Equal(t, int64(1), ParseInt64("ASF_TEST_INT64", 1))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  time.Duration
	}{
		{"valid", "90s", true, 90 * time.Second},
		{"compound", "1h30m", true, 90 * time.Minute},
		{"invalid", "soon", true, 5 * time.Second},
		{"bare number", "30", true, 5 * time.Second},
		{"unset", "", false, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("ASF_TEST_DUR", tt.value)
			}
			assert.Equal(t, tt.want, ParseDuration("ASF_TEST_DUR", 5*time.Second))
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true}, {"1", true}, {"yes", true}, {"TRUE", true},
		{"false", false}, {"0", false}, {"no", false}, {"No", false},
		{"maybe", true}, // invalid keeps the default
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ASF_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, ParseBool("ASF_TEST_BOOL", true))
		})
	}
}

func TestParseFloat(t *testing.T) {
	t.Setenv("ASF_TEST_FLOAT", "0.25")
	assert.Equal(t, 0.25, ParseFloat("ASF_TEST_FLOAT", 1.0))

	t.Setenv("ASF_TEST_FLOAT", "slow")
	assert.Equal(t, 1.0, ParseFloat("ASF_TEST_FLOAT", 1.0))
}
