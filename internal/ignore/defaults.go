package ignore

// DefaultPatterns contains patterns that are always excluded from
// indexing. These are directories and files whose contents are never
// worth documenting.
var DefaultPatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies
	"node_modules",
	"vendor",
	"bower_components",
	".npm",
	".yarn",

	// Build output
	"dist",
	"build",
	"out",
	"target",
	"bin",
	"obj",

	// IDE / Editor
	".idea",
	".vscode",
	"*.swp",
	"*.swo",
	"*~",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",

	// Python
	"__pycache__",
	"*.pyc",
	".venv",
	"venv",

	// Caches and locks
	".cache",
	"*.lock",
	"*.log",
	".codescribe.yaml",
}
