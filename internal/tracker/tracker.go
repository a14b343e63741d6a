package tracker

import (
	"context"
	"fmt"

	"feedloop.app/triage/core/config"
)

// IssueRequest is a provider-neutral issue to create.
type IssueRequest struct {
	Title  string
	Body   string
	Labels []string
}

// Issue is the created tracker issue.
type Issue struct {
	URL    string
	Number int
}

// Client creates issues in an external tracker.
type Client interface {
	CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error)
}

// NewFromConfig selects the tracker implementation by provider name.
// With no provider configured, issue creation fails at approval time
// rather than at startup, so the review API stays usable.
func NewFromConfig(ctx context.Context, cfg config.TrackerConfig) (Client, error) {
	switch cfg.Provider {
	case "github":
		return NewGitHubClient(ctx, cfg)
	case "gitlab":
		return NewGitLabClient(cfg)
	case "":
		return disabledClient{}, nil
	default:
		return nil, fmt.Errorf("unsupported tracker provider: %s", cfg.Provider)
	}
}

type disabledClient struct{}

func (disabledClient) CreateIssue(context.Context, IssueRequest) (*Issue, error) {
	return nil, fmt.Errorf("no tracker provider configured")
}
