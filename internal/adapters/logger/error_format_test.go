package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/again/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMessages []string
	}{
		{
			name:         "standard error",
			err:          errors.New("walk failed"),
			wantMessages: []string{"walk failed"},
		},
		{
			name: "wrapped chain",
			err: zerr.Wrap(
				zerr.Wrap(
					errors.New("permission denied"),
					"failed to read input tree",
				),
				"run failed",
			),
			wantMessages: []string{"run failed", "failed to read input tree", "permission denied"},
		},
		{
			name:         "nil error",
			err:          nil,
			wantMessages: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := logger.CollectErrorEntries(tt.err)

			assert.Len(t, entries, len(tt.wantMessages))
			for i, want := range tt.wantMessages {
				assert.Equal(t, want, entries[i].Message)
			}
		})
	}
}

func TestCollectErrorEntries_Metadata(t *testing.T) {
	err := zerr.With(zerr.With(zerr.New("command failed"), "exit_code", 42), "command", "make")

	entries := logger.CollectErrorEntries(err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "command failed", entries[0].Message)
	assert.Equal(t, map[string]any{"exit_code": 42, "command": "make"}, entries[0].Metadata)
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "store unavailable"}},
			want:    "Error: store unavailable",
		},
		{
			name: "chain with caused by",
			entries: []logger.ErrorEntry{
				{Message: "run failed"},
				{Message: "publish failed"},
				{Message: "disk full"},
			},
			want: "Error: run failed\n\n  Caused by:\n    → publish failed\n    → disk full",
		},
		{
			name: "metadata on main error sorted by key",
			entries: []logger.ErrorEntry{
				{
					Message:  "cache entry corrupt",
					Metadata: map[string]any{"key": "ab12", "checksum": "bad"},
				},
			},
			want: "Error: cache entry corrupt\n       checksum: bad\n       key: ab12",
		},
		{
			name: "metadata on cause",
			entries: []logger.ErrorEntry{
				{Message: "run failed"},
				{Message: "command failed", Metadata: map[string]any{"exit_code": 2}},
			},
			want: "Error: run failed\n\n  Caused by:\n    → command failed\n      exit_code: 2",
		},
		{
			name: "multiline message",
			entries: []logger.ErrorEntry{
				{Message: "yaml: unmarshal errors:\n  line 3: cannot unmarshal"},
			},
			want: "Error: yaml: unmarshal errors:\n         line 3: cannot unmarshal",
		},
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}
