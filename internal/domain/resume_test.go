package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHash = strings.Repeat("ab", 32)

func TestNewResume(t *testing.T) {
	resume, err := NewResume(testHash, "cv.pdf", 2048, "Jane Doe, Backend Engineer")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, resume.ID)
	assert.Equal(t, testHash, resume.ContentHash)
	assert.Nil(t, resume.AnonymizedHTML)
	assert.False(t, resume.CreatedAt.IsZero())
}

func TestNewResumeValidation(t *testing.T) {
	tests := []struct {
		name     string
		hash     string
		fileName string
		text     string
		wantErr  error
	}{
		{"short hash", "abcd", "cv.pdf", "text", ErrInvalidContentHash},
		{"uppercase hash", strings.Repeat("AB", 32), "cv.pdf", "text", ErrInvalidContentHash},
		{"missing file name", testHash, "", "text", ErrEmptyResumeFileName},
		{"missing text", testHash, "cv.pdf", "", ErrEmptyResumeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResume(tt.hash, tt.fileName, 10, tt.text)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewMatchResultValidation(t *testing.T) {
	_, err := NewMatchResult(testHash, testHash, uuid.New(), uuid.New(), 120, nil, "")
	assert.ErrorIs(t, err, ErrInvalidMatchScore)

	result, err := NewMatchResult(testHash, testHash, uuid.New(), uuid.New(), 87.5, map[string]float64{"skills": 90}, "strong overlap")
	require.NoError(t, err)
	assert.Equal(t, 87.5, result.Score)
}
