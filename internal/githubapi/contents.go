package githubapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v66/github"
	"github.com/sirupsen/logrus"
)

// RepoFileTree lists every blob path on the default branch, recursively.
func (c *Client) RepoFileTree(ctx context.Context, token, owner, repo string) ([]string, error) {
	gh, tk, err := c.forToken(token)
	if err != nil {
		return nil, err
	}
	key := cacheKey("tree", tk, owner, repo)
	if paths, ok := cached[[]string](c, key); ok {
		return paths, nil
	}
	if paths, ok := loadPersistent[[]string](ctx, c, key); ok {
		c.cache.Add(key, paths)
		return paths, nil
	}

	tree, _, err := gh.Git.GetTree(ctx, owner, repo, "HEAD", true)
	if err != nil {
		return nil, translate(err, "get tree "+owner+"/"+repo)
	}
	if tree.GetTruncated() {
		c.log.WithField("repo", owner+"/"+repo).Warn("file tree truncated by github")
	}
	paths := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() == "blob" {
			paths = append(paths, e.GetPath())
		}
	}
	c.cache.Add(key, paths)
	c.storePersistent(ctx, key, paths)
	return paths, nil
}

type fileResult struct {
	Content string `json:"content"`
	OK      bool   `json:"ok"`
}

// FileContent returns a file's decoded text. ok is false when the path does
// not exist, is a directory or exceeds the configured size ceiling.
func (c *Client) FileContent(ctx context.Context, token, owner, repo, path string) (string, bool, error) {
	gh, tk, err := c.forToken(token)
	if err != nil {
		return "", false, err
	}
	key := cacheKey("file", tk, owner, repo, path)
	if res, ok := cached[fileResult](c, key); ok {
		return res.Content, res.OK, nil
	}
	if res, ok := loadPersistent[fileResult](ctx, c, key); ok {
		c.cache.Add(key, res)
		return res.Content, res.OK, nil
	}

	res, err := c.fetchFile(ctx, gh, owner, repo, path)
	if err != nil {
		return "", false, err
	}
	c.cache.Add(key, res)
	c.storePersistent(ctx, key, res)
	return res.Content, res.OK, nil
}

func (c *Client) fetchFile(ctx context.Context, gh *github.Client, owner, repo, path string) (fileResult, error) {
	fc, _, _, err := gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		err = translate(err, "get contents "+owner+"/"+repo+"/"+path)
		if errors.Is(err, ErrNotFound) {
			return fileResult{}, nil
		}
		return fileResult{}, err
	}
	if fc == nil {
		return fileResult{}, nil
	}
	if fc.GetSize() > c.maxFileBytes {
		c.log.WithFields(logrus.Fields{"path": path, "size": fc.GetSize()}).Debug("file over size ceiling skipped")
		return fileResult{}, nil
	}
	content, err := fc.GetContent()
	if err != nil {
		return fileResult{}, fmt.Errorf("decode %s/%s/%s: %w", owner, repo, path, err)
	}
	return fileResult{Content: content, OK: true}, nil
}
