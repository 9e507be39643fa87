package asset

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Classification is the result of sniffing a file's content: its MIME type
// and candidate file extensions, ordered best-first. Extensions carry no
// leading dot. An unrecognized file yields MIME "application/octet-stream"
// and no extensions.
type Classification struct {
	MIME       string
	Extensions []string
}

// Classifier sniffs a file's content to determine its type. The pipeline
// uses it to assign extensions to freshly fetched assets; the store uses it
// to answer MIME queries for assets without a cached sidecar.
type Classifier interface {
	Classify(ctx context.Context, path string) (Classification, error)
}

// contentClassifier is the production Classifier, backed by magic-byte
// detection from github.com/gabriel-vasile/mimetype.
type contentClassifier struct{}

// NewClassifier returns the default content-sniffing classifier.
func NewClassifier() Classifier {
	return contentClassifier{}
}

func (contentClassifier) Classify(ctx context.Context, path string) (Classification, error) {
	if err := ctx.Err(); err != nil {
		return Classification{}, err
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to detect content type: %w", err)
	}

	result := Classification{MIME: mtype.String()}
	if ext := strings.TrimPrefix(mtype.Extension(), "."); ext != "" {
		result.Extensions = append(result.Extensions, ext)
	}

	return result, nil
}
