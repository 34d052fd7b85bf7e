package githubsvc

import (
	"context"

	"github.com/google/go-github/v45/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/project"
)

type Service struct {
	client *github.Client
}

var _ project.RepoInfoService = (*Service)(nil)

// NewService builds a GitHub client; unauthenticated (rate-limited) when the
// token is empty.
func NewService(conf *core.Config) *Service {
	var client *github.Client
	if conf.GithubToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conf.GithubToken})
		client = github.NewClient(oauth2.NewClient(context.Background(), src))
	} else {
		client = github.NewClient(nil)
	}
	return &Service{client: client}
}

func (svc *Service) GetRepository(ctx context.Context, owner, name string) (project.RepoInfo, error) {
	repo, _, err := svc.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return project.RepoInfo{}, errors.Wrapf(err, "fetching repository %s/%s", owner, name)
	}
	return project.RepoInfo{
		Owner:       owner,
		Name:        repo.GetName(),
		URL:         repo.GetHTMLURL(),
		Description: repo.GetDescription(),
		Language:    repo.GetLanguage(),
		Stars:       repo.GetStargazersCount(),
	}, nil
}

// Mock serves canned repository metadata for tests.
type Mock struct {
	Repos map[string]project.RepoInfo // keyed by "owner/name"
	Err   error
}

var _ project.RepoInfoService = (*Mock)(nil)

func (m *Mock) GetRepository(ctx context.Context, owner, name string) (project.RepoInfo, error) {
	if m.Err != nil {
		return project.RepoInfo{}, m.Err
	}
	info, ok := m.Repos[owner+"/"+name]
	if !ok {
		return project.RepoInfo{}, errors.Errorf("repository %s/%s not found", owner, name)
	}
	return info, nil
}
