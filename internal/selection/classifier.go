package selection

import (
	"strings"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

// Priority ranks assigned by the classifier. Lower is more important.
const (
	PriorityReadme    = 1
	PriorityManifest  = 2
	PriorityDocs      = 3
	PriorityConfig    = 4
	PriorityEntry     = 5
	PrioritySource    = 6
	PriorityPlainText = 7
)

// noExtension is the file-type key for files without an extension.
const noExtension = "no_extension"

// Build, cache and dependency directories. Any path segment in this set
// makes the file ineligible.
var skipDirs = setOf(".git", "node_modules", "dist", "build", ".next",
	".cache", "__pycache__", ".venv", "venv", "env")

// Binary and generated artifacts.
var skipExtensions = setOf(".png", ".jpg", ".jpeg", ".gif", ".pdf", ".exe",
	".zip", ".tar", ".gz", ".bin", ".so", ".dll", ".dylib")

var readmeNames = setOf("readme", "readme.md", "readme.txt", "readme.rst")

// Package manifests and build descriptors.
var manifestNames = setOf("package.json", "requirements.txt", "pyproject.toml",
	"cargo.toml", "go.mod", "pom.xml", "build.gradle",
	"composer.json", "gemfile", "setup.py", "setup.cfg")

var docNames = setOf("contributing.md", "license", "license.md", "changelog.md",
	"api.md", "docs.md", "getting-started.md")

var docDirs = setOf("docs", "doc")

var markupExtensions = setOf(".md", ".txt", ".rst")

var configSuffixes = []string{".config.js", ".config.ts", ".config.mjs", ".config.cjs"}

var settingsNames = setOf("config.json", "settings.json")

var entryMarkers = []string{"main", "index", "app", "__init__", "server"}

var entryExtensions = setOf(".py", ".js", ".ts", ".java", ".go", ".rs", ".cpp", ".c")

var sourceExtensions = setOf(".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".go",
	".rs", ".cpp", ".c", ".h", ".hpp", ".cs", ".php",
	".rb", ".swift", ".kt", ".dart")

var textExtensions = setOf(".md", ".txt", ".yml", ".yaml", ".json", ".xml", ".toml", ".ini")

// pathFacts is the lower-cased view of a path that rules match against.
type pathFacts struct {
	name     string
	ext      string
	segments []string
}

// dirs returns the directory segments, excluding the file name.
func (f pathFacts) dirs() []string {
	return f.segments[:len(f.segments)-1]
}

// rule is one row of the classification table.
type rule struct {
	name     string
	match    func(f pathFacts) bool
	eligible bool
	priority func(subtreeDepth int) int
}

func fixed(p int) func(int) int {
	return func(int) int { return p }
}

// rules are evaluated top to bottom; the first match decides.
var rules = []rule{
	{
		name:     "skip-dir",
		match:    func(f pathFacts) bool { return anyIn(f.segments, skipDirs) },
		priority: fixed(domain.SentinelPriority),
	},
	{
		name:     "skip-extension",
		match:    func(f pathFacts) bool { return skipExtensions[f.ext] },
		priority: fixed(domain.SentinelPriority),
	},
	{
		name:     "readme",
		match:    func(f pathFacts) bool { return readmeNames[f.name] },
		eligible: true,
		priority: func(depth int) int { return PriorityReadme + min(depth, 1) },
	},
	{
		name: "manifest",
		match: func(f pathFacts) bool {
			return len(f.segments) <= 2 && manifestNames[f.name]
		},
		eligible: true,
		priority: func(depth int) int { return PriorityManifest + depth },
	},
	{
		name: "docs",
		match: func(f pathFacts) bool {
			return (docNames[f.name] || anyIn(f.dirs(), docDirs)) && markupExtensions[f.ext]
		},
		eligible: true,
		priority: fixed(PriorityDocs),
	},
	{
		name: "config",
		match: func(f pathFacts) bool {
			return hasAnySuffix(f.name, configSuffixes) || settingsNames[f.name]
		},
		eligible: true,
		priority: fixed(PriorityConfig),
	},
	{
		name: "entry-point",
		match: func(f pathFacts) bool {
			return containsAny(f.name, entryMarkers) && entryExtensions[f.ext]
		},
		eligible: true,
		priority: fixed(PriorityEntry),
	},
	{
		name:     "source",
		match:    func(f pathFacts) bool { return sourceExtensions[f.ext] },
		eligible: true,
		priority: fixed(PrioritySource),
	},
	{
		name:     "plain-text",
		match:    func(f pathFacts) bool { return textExtensions[f.ext] },
		eligible: true,
		priority: fixed(PriorityPlainText),
	},
}

// Classify decides whether a file is worth analysing and ranks it.
// relPath is slash-separated and relative to the scanned scope; subtreeDepth
// is the number of segments in the subtree path (0 for a whole tree).
// Ineligible files carry domain.SentinelPriority.
func Classify(relPath string, subtreeDepth int) (eligible bool, priority int) {
	facts := factsFor(relPath)
	for _, r := range rules {
		if r.match(facts) {
			return r.eligible, r.priority(subtreeDepth)
		}
	}
	return false, domain.SentinelPriority
}

// Extension returns the lower-cased extension of a file name, including the dot.
// Dotfiles such as ".gitignore" and names ending in a dot have no extension.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// FileType returns the file-type key used in scan metadata.
func FileType(name string) string {
	if ext := Extension(name); ext != "" {
		return ext
	}
	return noExtension
}

func factsFor(relPath string) pathFacts {
	segments := strings.Split(strings.ToLower(strings.Trim(relPath, "/")), "/")
	name := segments[len(segments)-1]
	return pathFacts{
		name:     name,
		ext:      Extension(name),
		segments: segments,
	}
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

func anyIn(items []string, set map[string]bool) bool {
	for _, item := range items {
		if set[item] {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func containsAny(s string, parts []string) bool {
	for _, part := range parts {
		if strings.Contains(s, part) {
			return true
		}
	}
	return false
}
