package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"profily/internal/githubapi"
	"profily/internal/techstack"
)

// analyze runs one pass over the user's repositories and returns every raw
// detection tagged with its signal. Only a failed repository listing or
// cancellation fails the pass.
func (a *Analyzer) analyze(ctx context.Context, token string, log logrus.FieldLogger) ([]techstack.Detection, int, error) {
	repos, err := a.gh.ListRepositories(ctx, token)
	if err != nil {
		return nil, 0, fmt.Errorf("list repositories: %w", err)
	}
	selected := selectRepositories(repos, a.cfg.MaxRepos)
	log.WithFields(logrus.Fields{
		"listed":   len(repos),
		"selected": len(selected),
	}).Info("analyzing repositories")

	results := make(chan []techstack.Detection)
	var all []techstack.Detection
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for batch := range results {
			all = append(all, batch...)
		}
	}()

	p := &pass{a: a, token: token, log: log}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for _, repo := range selected {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			detections, err := p.repository(gctx, repo)
			if err != nil {
				return err
			}
			results <- detections
			return nil
		})
	}
	err = g.Wait()
	close(results)
	<-collected

	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return all, len(selected), nil
}

// selectRepositories drops forks and keeps the largest, most recently pushed
// repositories up to limit.
func selectRepositories(repos []githubapi.Repository, limit int) []githubapi.Repository {
	out := make([]githubapi.Repository, 0, len(repos))
	for _, r := range repos {
		if !r.IsFork {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return pushedAfter(out[i], out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func pushedAfter(a, b githubapi.Repository) bool {
	switch {
	case a.PushedAt == nil:
		return false
	case b.PushedAt == nil:
		return true
	default:
		return a.PushedAt.After(*b.PushedAt)
	}
}

// pass holds the state shared by every repository of one analysis.
type pass struct {
	a     *Analyzer
	token string
	log   logrus.FieldLogger

	// languagesHalted is set once GitHub rate limits a languages request;
	// later repositories skip the languages call.
	languagesHalted atomic.Bool
}

func (p *pass) repository(ctx context.Context, repo githubapi.Repository) ([]techstack.Detection, error) {
	log := p.log.WithField("repo", repo.FullName)

	var (
		wg      sync.WaitGroup
		langs   []techstack.Detection
		tree    []string
		treeErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		langs = p.languages(ctx, repo, log)
	}()
	go func() {
		defer wg.Done()
		tree, treeErr = p.a.gh.RepoFileTree(ctx, p.token, repo.Owner, repo.Name)
	}()
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if treeErr != nil {
		log.WithError(treeErr).Warn("file tree unavailable; keeping language detections only")
		return langs, nil
	}

	fetch := func(ctx context.Context, path string) (string, bool, error) {
		return p.a.gh.FileContent(ctx, p.token, repo.Owner, repo.Name, path)
	}
	var (
		g      errgroup.Group
		deps   []techstack.Technology
		files  []techstack.Technology
		readme []techstack.Technology
	)
	g.Go(func() error {
		var err error
		deps, err = p.a.det.Dependencies(ctx, tree, fetch)
		return err
	})
	g.Go(func() error {
		files = p.a.det.FilePresence(tree)
		return nil
	})
	g.Go(func() error {
		var err error
		readme, err = p.a.det.ReadmeFromTree(ctx, tree, fetch)
		return err
	})
	topics := p.a.det.Topics(repo.Topics)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]techstack.Detection, 0, len(langs)+len(deps)+len(files)+len(readme)+len(topics))
	out = append(out, langs...)
	out = append(out, techstack.Tag(techstack.SignalDependencies, deps)...)
	out = append(out, techstack.Tag(techstack.SignalFilePresence, files)...)
	out = append(out, techstack.Tag(techstack.SignalReadme, readme)...)
	out = append(out, techstack.Tag(techstack.SignalTopics, topics)...)
	log.WithField("detections", len(out)).Debug("repository analyzed")
	return out, nil
}

func (p *pass) languages(ctx context.Context, repo githubapi.Repository, log logrus.FieldLogger) []techstack.Detection {
	if p.languagesHalted.Load() {
		return nil
	}
	stats, err := p.a.gh.RepositoryLanguages(ctx, p.token, repo.Owner, repo.Name)
	if errors.Is(err, githubapi.ErrRateLimited) {
		if p.languagesHalted.CompareAndSwap(false, true) {
			log.WithError(err).Warn("github rate limit reached; skipping language requests for the rest of the pass")
		}
		return nil
	}
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("language fetch failed")
		}
		return nil
	}
	names := make([]string, 0, len(stats))
	for _, s := range stats {
		names = append(names, s.Name)
	}
	return techstack.Tag(techstack.SignalLanguages, p.a.det.Languages(names))
}
