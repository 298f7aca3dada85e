package service

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// TextExtractor turns uploaded file bytes into plain text. Binary formats
// (PDF, DOC) are handled by an injected implementation outside this module;
// fingerprinting always runs over the raw bytes, never the extracted text.
type TextExtractor interface {
	Extract(ctx context.Context, fileName string, content []byte) (string, error)
}

// PlainTextExtractor treats uploads as UTF-8 text.
type PlainTextExtractor struct{}

// Extract returns the bytes as a string, rejecting invalid UTF-8.
func (PlainTextExtractor) Extract(ctx context.Context, fileName string, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("file %q is not valid UTF-8 text", fileName)
	}
	return string(content), nil
}
