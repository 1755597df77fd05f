// Package indexstore persists generated documentation metadata per path,
// partitioned by project.
//
// Each project gets one partition directory under the base index dir,
// named by a short deterministic hash of the project root plus a readable
// suffix. Inside a partition, each indexed path maps to one JSON record
// file, named by substituting path separators with underscores, so every
// process computing the location for the same logical path agrees on it.
package indexstore

// Member kinds mirror the filesystem entry types a directory can contain.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// Member is one entry of a directory record: the child's identity and
// one-line summary, not a back-reference to the full child record.
type Member struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
}

// PathRecord is the cached documentation metadata for one file or directory.
type PathRecord struct {
	// Path is the absolute filesystem path, the identity key.
	Path string `json:"path"`

	// IsDirectory is resolved from the live filesystem at write time.
	IsDirectory bool `json:"is_directory"`

	// Summary is a short one-line description.
	Summary string `json:"summary"`

	// Detail is a longer description.
	Detail string `json:"detail"`

	// Members is present only for directories, in directory-listing order.
	Members []Member `json:"members,omitempty"`

	// LastModifiedAt is when this index entry was produced (epoch millis).
	// Staleness is judged against the live file's mtime.
	LastModifiedAt int64 `json:"last_modified_at"`

	// LastDocumentedAt is when generated content was last physically
	// written into the source file (epoch millis), zero if never.
	LastDocumentedAt int64 `json:"last_documented_at,omitempty"`
}
