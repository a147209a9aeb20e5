// Package ignore merges the built-in excludes, the repo-local ignore file,
// and explicit include/exclude globs into a single decision for whether a
// path should be indexed.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// StateDirName is the engine's own on-disk state directory. It is always
// excluded regardless of user configuration.
const StateDirName = ".pui"

// FileName is the repo-local ignore file, gitignore-syntax, checked in
// alongside the repo.
const FileName = ".puiignore"

// defaultExcludes covers VCS directories, virtualenvs, dependency
// directories, build output, and common binary extensions.
var defaultExcludes = []string{
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
	"vendor/",
	".venv/",
	"venv/",
	"env/",
	"__pycache__/",
	".mypy_cache/",
	".pytest_cache/",
	".ruff_cache/",
	".tox/",
	"target/",
	"build/",
	"dist/",
	"out/",
	".cache/",
	"*.pyc",
	"*.so",
	"*.dll",
	"*.dylib",
	"*.exe",
	"*.o",
	"*.a",
	"*.class",
	"*.jar",
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.pdf",
	"*.zip", "*.tar", "*.gz", "*.tgz",
}

// Resolver decides whether a repo-relative path should be indexed.
//
// Precedence, highest first: explicit CLI excludes, the repo's .puiignore,
// then the built-in defaults. Explicit includes override any of the above.
type Resolver struct {
	excludes *gitignore.GitIgnore
	includes *gitignore.GitIgnore
}

// New builds a Resolver for repoRoot. cliExcludes and cliIncludes are
// gitignore-syntax glob patterns supplied on the command line; a repo-local
// .puiignore file, if present, is read automatically.
func New(repoRoot string, cliExcludes, cliIncludes []string) (*Resolver, error) {
	lines := append([]string{}, defaultExcludes...)

	if data, err := os.ReadFile(filepath.Join(repoRoot, FileName)); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}

	// CLI excludes are appended last so a later, more specific rule can
	// re-include a path the defaults or the ignore file exclude, matching
	// gitignore's last-match-wins semantics.
	lines = append(lines, cliExcludes...)

	excludes, err := gitignore.CompileIgnoreLines(lines...)
	if err != nil {
		return nil, err
	}

	var includes *gitignore.GitIgnore
	if len(cliIncludes) > 0 {
		includes, err = gitignore.CompileIgnoreLines(cliIncludes...)
		if err != nil {
			return nil, err
		}
	}

	return &Resolver{excludes: excludes, includes: includes}, nil
}

// Excluded reports whether relPath (repo-root-relative, forward-slash)
// should be skipped during discovery.
func (r *Resolver) Excluded(relPath string) bool {
	clean := filepath.ToSlash(relPath)

	if isSelfState(clean) {
		return true
	}
	if r.includes != nil && r.includes.MatchesPath(clean) {
		return false
	}
	return r.excludes.MatchesPath(clean)
}

// isSelfState enforces the self-exclusion invariant: the engine's own index
// directory is never a candidate for indexing, no matter what the user's
// ignore rules say.
func isSelfState(relPath string) bool {
	if relPath == StateDirName {
		return true
	}
	return strings.HasPrefix(relPath, StateDirName+"/")
}
