package tracker

import (
	"context"
	"fmt"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"feedloop.app/triage/core/config"
)

type gitLabClient struct {
	client    *gitlab.Client
	projectID int
}

func NewGitLabClient(cfg config.TrackerConfig) (Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gitlab token is required")
	}
	if cfg.ProjectID == 0 {
		return nil, fmt.Errorf("gitlab project id is required")
	}

	var opts []gitlab.ClientOptionFunc
	if cfg.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(cfg.BaseURL))
	}

	client, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &gitLabClient{
		client:    client,
		projectID: cfg.ProjectID,
	}, nil
}

func (c *gitLabClient) CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error) {
	labels := gitlab.LabelOptions(req.Labels)
	issue, _, err := c.client.Issues.CreateIssue(c.projectID, &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(req.Title),
		Description: gitlab.Ptr(req.Body),
		Labels:      &labels,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating gitlab issue: %w", err)
	}

	return &Issue{
		URL:    issue.WebURL,
		Number: int(issue.IID),
	}, nil
}
