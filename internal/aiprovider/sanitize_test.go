package aiprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripSecrets_BearerAndAPIKey(t *testing.T) {
	in := `auth failed: Bearer abc123token456 and api_key=sk-ant-abcdef0123456789`
	out := StripSecrets(in)
	assert.NotContains(t, out, "abc123token456")
	assert.NotContains(t, out, "sk-ant-abcdef0123456789")
	assert.Contains(t, out, "****")
}

func TestStripSecrets_GenericTokenAndSecret(t *testing.T) {
	in := `token=abcdefghij1234567890 secret: zzzzyyyyxxxxwwwwvvvv`
	out := StripSecrets(in)
	assert.NotContains(t, out, "abcdefghij1234567890")
	assert.NotContains(t, out, "zzzzyyyyxxxxwwwwvvvv")
}

func TestStripSecrets_LeavesPlainTextAlone(t *testing.T) {
	in := "request completed in 42 ms"
	assert.Equal(t, in, StripSecrets(in))
}
