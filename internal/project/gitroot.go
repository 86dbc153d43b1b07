package project

import (
	"errors"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// ResolveProjectRoot implements A4: it walks upward from path looking for
// a `.git` directory via go-git's repository discovery and returns that
// repository's worktree root. When no repository is found it falls back
// to the canonicalized input path unchanged.
func ResolveProjectRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return abs, nil
		}
		return "", err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return abs, nil
	}
	return wt.Filesystem.Root(), nil
}
