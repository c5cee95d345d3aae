// Package githubprovider implements providers.GitHubProvider against the
// GitHub REST API via go-github, using the same oauth2.StaticTokenSource
// wiring the pack's bgdnvk-clanker repo uses to build an authenticated (or
// anonymous, lower-rate-limit) client.
package githubprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"
)

// Provider implements providers.GitHubProvider.
type Provider struct {
	client *github.Client
}

// New builds a client authenticated with token, or an anonymous
// (public-repo-only, lower-rate-limit) client when token is empty.
func New(token string) *Provider {
	if token == "" {
		return &Provider{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &Provider{client: github.NewClient(tc)}
}

// RepoMetadata returns repository description/default-branch/topic
// metadata, used to corroborate an alert against recent repo activity.
func (p *Provider) RepoMetadata(ctx context.Context, owner, repo string) (map[string]any, error) {
	r, _, err := p.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("get repo %s/%s: %w", owner, repo, err)
	}
	return map[string]any{
		"full_name":      r.GetFullName(),
		"default_branch": r.GetDefaultBranch(),
		"archived":       r.GetArchived(),
		"pushed_at":      r.GetPushedAt().Time,
	}, nil
}

// RecentCommits lists commits to the default branch since the given time,
// for change-correlation against an alert's onset.
func (p *Provider) RecentCommits(ctx context.Context, owner, repo string, since time.Time) ([]map[string]any, error) {
	commits, _, err := p.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		Since: since,
		ListOptions: github.ListOptions{PerPage: 50},
	})
	if err != nil {
		return nil, fmt.Errorf("list commits for %s/%s: %w", owner, repo, err)
	}
	out := make([]map[string]any, 0, len(commits))
	for _, c := range commits {
		out = append(out, map[string]any{
			"sha":     c.GetSHA(),
			"message": c.GetCommit().GetMessage(),
			"author":  c.GetCommit().GetAuthor().GetName(),
			"date":    c.GetCommit().GetAuthor().GetDate().Time,
			"url":     c.GetHTMLURL(),
		})
	}
	return out, nil
}

// WorkflowRuns lists GitHub Actions workflow runs created since the given
// time, for correlating an alert against a recent deploy pipeline.
func (p *Provider) WorkflowRuns(ctx context.Context, owner, repo string, since time.Time) ([]map[string]any, error) {
	runs, _, err := p.client.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, &github.ListWorkflowRunsOptions{
		Created:     ">=" + since.Format("2006-01-02"),
		ListOptions: github.ListOptions{PerPage: 30},
	})
	if err != nil {
		return nil, fmt.Errorf("list workflow runs for %s/%s: %w", owner, repo, err)
	}
	out := make([]map[string]any, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		out = append(out, map[string]any{
			"name":        run.GetName(),
			"status":      run.GetStatus(),
			"conclusion":  run.GetConclusion(),
			"head_branch": run.GetHeadBranch(),
			"head_sha":    run.GetHeadSHA(),
			"created_at":  run.GetCreatedAt().Time,
			"url":         run.GetHTMLURL(),
		})
	}
	return out, nil
}
