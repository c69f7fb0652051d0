package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword_KnownDigest(t *testing.T) {
	// SHA-256("secret"), lowercase hex. Browser peers compute the same
	// digest with WebCrypto, so the encoding is load-bearing.
	const want = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	assert.Equal(t, want, HashPassword("secret"))
}

func TestVerifyPassword(t *testing.T) {
	digest := HashPassword("secret")
	assert.True(t, VerifyPassword("secret", digest))
	assert.False(t, VerifyPassword("Secret", digest))
	assert.False(t, VerifyPassword("", digest))
}
