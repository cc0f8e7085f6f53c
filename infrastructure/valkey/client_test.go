package valkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "", normalizePrefix(""))
	assert.Equal(t, "insights:", normalizePrefix("insights"))
	assert.Equal(t, "insights:", normalizePrefix("insights:"))
}

func TestClientKey(t *testing.T) {
	c := &Client{keyPrefix: "insights:"}
	assert.Equal(t, "insights", c.Key())
	assert.Equal(t, "insights:embedding", c.Key("embedding"))
	assert.Equal(t, "insights:embedding:ab12", c.Key("embedding", "ab12"))

	bare := &Client{}
	assert.Equal(t, "embedding:x", bare.Key("embedding", "x"))
}
