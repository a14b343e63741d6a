package tracker

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v45/github"
	"golang.org/x/oauth2"

	"feedloop.app/triage/core/config"
)

type gitHubClient struct {
	client *gh.Client
	owner  string
	repo   string
}

func NewGitHubClient(ctx context.Context, cfg config.TrackerConfig) (Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	httpClient := oauth2.NewClient(ctx, ts)

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = gh.NewEnterpriseClient(cfg.BaseURL, cfg.BaseURL, httpClient)
		if err != nil {
			return nil, fmt.Errorf("creating enterprise client: %w", err)
		}
	}

	return &gitHubClient{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
	}, nil
}

func (c *gitHubClient) CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error) {
	labels := req.Labels
	issue, _, err := c.client.Issues.Create(ctx, c.owner, c.repo, &gh.IssueRequest{
		Title:  &req.Title,
		Body:   &req.Body,
		Labels: &labels,
	})
	if err != nil {
		return nil, fmt.Errorf("creating github issue: %w", err)
	}

	return &Issue{
		URL:    issue.GetHTMLURL(),
		Number: issue.GetNumber(),
	}, nil
}
