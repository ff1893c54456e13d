package githubapi

import (
	"context"
	"errors"
	"sort"

	"github.com/google/go-github/v66/github"
)

// ListRepositories returns every public repository owned by the token's user,
// most recently updated first. Forks are included and flagged.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]Repository, error) {
	gh, tk, err := c.forToken(token)
	if err != nil {
		return nil, err
	}
	key := cacheKey("repos", tk)
	if repos, ok := cached[[]Repository](c, key); ok {
		c.log.WithField("cache_key", "repos").Debug("github cache hit")
		return repos, nil
	}

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Type:        "owner",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: defaultPerPage},
	}
	var out []Repository
	for {
		page, resp, err := gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, translate(err, "list repositories")
		}
		for _, r := range page {
			if r.GetPrivate() {
				continue
			}
			out = append(out, fromGitHub(r))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.log.WithField("repos", len(out)).Info("fetched repositories")
	c.cache.Add(key, out)
	return out, nil
}

// RepositoryLanguages returns language byte counts for one repository,
// largest first.
func (c *Client) RepositoryLanguages(ctx context.Context, token, owner, repo string) ([]LanguageStat, error) {
	gh, tk, err := c.forToken(token)
	if err != nil {
		return nil, err
	}
	key := cacheKey("lang", tk, owner, repo)
	if stats, ok := cached[[]LanguageStat](c, key); ok {
		return stats, nil
	}

	langs, _, err := gh.Repositories.ListLanguages(ctx, owner, repo)
	if err != nil {
		return nil, translate(err, "list languages "+owner+"/"+repo)
	}
	bytes := make(map[string]int64, len(langs))
	for name, n := range langs {
		bytes[name] = int64(n)
	}
	stats := languageStats(bytes)
	c.cache.Add(key, stats)
	return stats, nil
}

const (
	statsTopRepos     = 10
	statsTopLanguages = 8
)

// UserStats aggregates stars, forks and language usage over the user's public
// non-fork repositories. Language totals cover the most starred repositories
// and stop early when GitHub starts rate limiting.
func (c *Client) UserStats(ctx context.Context, token string) (*Stats, error) {
	gh, tk, err := c.forToken(token)
	if err != nil {
		return nil, err
	}
	key := cacheKey("stats", tk)
	if stats, ok := cached[*Stats](c, key); ok {
		return stats, nil
	}

	user, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		return nil, translate(err, "get user")
	}
	repos, err := c.ListRepositories(ctx, token)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Username:  user.GetLogin(),
		Followers: user.GetFollowers(),
		Following: user.GetFollowing(),
		FetchedAt: c.now().UTC(),
	}
	owned := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if r.IsFork {
			continue
		}
		owned = append(owned, r)
		stats.TotalStars += r.StarsCount
		stats.TotalForks += r.ForksCount
	}
	stats.PublicReposCount = len(owned)

	sort.SliceStable(owned, func(i, j int) bool { return owned[i].StarsCount > owned[j].StarsCount })
	if len(owned) > statsTopRepos {
		owned = owned[:statsTopRepos]
	}
	bytes := map[string]int64{}
	for _, r := range owned {
		langs, err := c.RepositoryLanguages(ctx, token, r.Owner, r.Name)
		if errors.Is(err, ErrRateLimited) {
			c.log.WithError(err).Warn("github rate limit reached; language stats are partial")
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.WithError(err).WithField("repo", r.FullName).Warn("language fetch failed")
			continue
		}
		for _, l := range langs {
			bytes[l.Name] += l.Bytes
		}
	}
	top := languageStats(bytes)
	if len(top) > statsTopLanguages {
		top = top[:statsTopLanguages]
	}
	stats.TopLanguages = top

	c.cache.Add(key, stats)
	return stats, nil
}
