package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/again/internal/core/domain"
)

func TestRecord_SealVerify(t *testing.T) {
	t.Parallel()

	r := domain.Record{
		Key:            "abc123",
		CreatedAt:      time.Now(),
		ExitCode:       0,
		ManifestDigest: "def456",
		TreeBytes:      1024,
	}
	assert.False(t, r.Verify())

	r.Seal()
	assert.True(t, r.Verify())
	assert.Len(t, r.Checksum, 16)
}

func TestRecord_VerifyDetectsTampering(t *testing.T) {
	t.Parallel()

	r := domain.Record{Key: "abc", CreatedAt: time.Unix(1700000000, 0), TreeBytes: 10}
	r.Seal()

	tampered := r
	tampered.TreeBytes = 11
	assert.False(t, tampered.Verify())

	tampered = r
	tampered.Key = "abd"
	assert.False(t, tampered.Verify())

	tampered = r
	tampered.Checksum = "0000000000000000"
	assert.False(t, tampered.Verify())
}
