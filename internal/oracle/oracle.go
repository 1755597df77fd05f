// Package oracle defines the documentation oracle: the external
// text-generation service the indexer treats as a black box.
package oracle

import (
	"context"

	"github.com/codescribe/codescribe/internal/indexstore"
)

// Oracle produces documentation text for files and directories.
// Every operation may fail with a network or parse error; the caller does
// not retry beyond the bounded retry an implementation carries itself.
type Oracle interface {
	// Summarize returns a short one-line description of file content.
	Summarize(ctx context.Context, content string) (string, error)

	// Describe returns a longer description of a file.
	Describe(ctx context.Context, path, content string) (string, error)

	// DescribeDirectory produces a summary and detail for a directory
	// from its members' names and summaries.
	DescribeDirectory(ctx context.Context, path string, members []indexstore.Member) (summary, detail string, err error)

	// Members extracts documented members (functions, types, sections)
	// from file content.
	Members(ctx context.Context, path, content string) ([]indexstore.Member, error)
}
