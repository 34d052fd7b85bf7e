package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/project"
)

type projectRepository struct {
	db   *projectTable
	enrs *enrollmentTable
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *DB) *projectRepository {
	return &projectRepository{db: db.project, enrs: db.enrollment}
}

func (repo *projectRepository) query() []project.Project {
	projs := make([]project.Project, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		proj := *p
		proj.Tags = repo.db.tags[proj.ID]
		projs = append(projs, proj)
	}
	sort.Slice(projs, func(i, j int) bool { return projs[i].Name < projs[j].Name })
	return projs
}

func (repo *projectRepository) CreateProject(ctx context.Context, proj project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	proj.ID = uuid.New().String()
	repo.db.table[proj.ID] = &proj
	return proj, nil
}

func (repo *projectRepository) GetProject(ctx context.Context, filter project.GetFilter) (project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, proj := range repo.query() {
		switch {
		case filter.ID != "" && proj.ID == filter.ID:
			return proj, nil
		case filter.Slug != "" && proj.Slug == filter.Slug:
			return proj, nil
		case filter.Name != "" && strings.EqualFold(proj.Name, filter.Name):
			return proj, nil
		}
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, ordering []core.DBOrdering) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projs := make([]project.Project, 0)
	for _, proj := range repo.query() {
		if filter != nil {
			if filter.Search != "" &&
				!strings.Contains(strings.ToLower(proj.Name), strings.ToLower(filter.Search)) &&
				!strings.Contains(strings.ToLower(proj.Summary), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.IsApproved != nil && proj.IsApproved != *filter.IsApproved {
				continue
			}
			if filter.OwnerID != "" && (!proj.OwnerID.Valid || proj.OwnerID.String != filter.OwnerID) {
				continue
			}
			if filter.SemesterID != "" && !repo.enrolledInSemester(proj.ID, filter.SemesterID) {
				continue
			}
			if filter.SeekingMembers && !repo.hasPitch(proj.ID, filter.SemesterID) {
				continue
			}
		}
		projs = append(projs, proj)
	}
	return projs, nil
}

func (repo *projectRepository) enrolledInSemester(projectID, semesterID string) bool {
	repo.enrs.RLock()
	defer repo.enrs.RUnlock()
	for _, enr := range repo.enrs.table {
		if enr.SemesterID == semesterID && enr.ProjectID.Valid && enr.ProjectID.String == projectID {
			return true
		}
	}
	return false
}

func (repo *projectRepository) hasPitch(projectID, semesterID string) bool {
	for _, pitch := range repo.db.pitches {
		if pitch.ProjectID == projectID && (semesterID == "" || pitch.SemesterID == semesterID) {
			return true
		}
	}
	return false
}

func (repo *projectRepository) UpdateProject(ctx context.Context, proj project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[proj.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	stored := proj
	repo.db.table[proj.ID] = &stored
	return proj, nil
}

func (repo *projectRepository) CountOwnedProjects(ctx context.Context, ownerID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	count := 0
	for _, proj := range repo.db.table {
		if proj.OwnerID.Valid && proj.OwnerID.String == ownerID {
			count++
		}
	}
	return count, nil
}

func (repo *projectRepository) CountProjectSemesters(ctx context.Context, projectID string) (int, error) {
	repo.enrs.RLock()
	defer repo.enrs.RUnlock()

	sems := make(map[string]bool)
	for _, enr := range repo.enrs.table {
		if enr.ProjectID.Valid && enr.ProjectID.String == projectID {
			sems[enr.SemesterID] = true
		}
	}
	return len(sems), nil
}

func (repo *projectRepository) SetProjectTags(ctx context.Context, projectID string, tags []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.tags[projectID] = tags
	return nil
}

func (repo *projectRepository) QueryRepositories(ctx context.Context, projectID string) ([]project.RepoLink, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.repos[projectID], nil
}

func (repo *projectRepository) SetRepositories(ctx context.Context, projectID string, urls []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repos := make([]project.RepoLink, 0, len(urls))
	for _, url := range urls {
		repos = append(repos, project.RepoLink{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			URL:       url,
		})
	}
	repo.db.repos[projectID] = repos
	return nil
}

func (repo *projectRepository) CreatePitch(ctx context.Context, pitch project.Pitch) (project.Pitch, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pitch.ID = uuid.New().String()
	repo.db.pitches[key(pitch.SemesterID, pitch.ProjectID)] = &pitch
	return pitch, nil
}

func (repo *projectRepository) GetPitch(ctx context.Context, semesterID, projectID string) (project.Pitch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pitch, ok := repo.db.pitches[key(semesterID, projectID)]; ok {
		return *pitch, nil
	}
	return project.Pitch{}, project.ErrSubmissionMissing
}

func (repo *projectRepository) QueryPitches(ctx context.Context, semesterID string) ([]project.Pitch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pitches := make([]project.Pitch, 0)
	for _, pitch := range repo.db.pitches {
		if pitch.SemesterID == semesterID {
			pitches = append(pitches, *pitch)
		}
	}
	sort.Slice(pitches, func(i, j int) bool { return pitches[i].CreatedAt.Before(pitches[j].CreatedAt) })
	return pitches, nil
}

func (repo *projectRepository) CreateProposal(ctx context.Context, prop project.Proposal) (project.Proposal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(prop.SemesterID, prop.ProjectID)
	if existing, ok := repo.db.proposals[k]; ok {
		existing.URL = prop.URL
		existing.UpdatedAt = prop.UpdatedAt
		return *existing, nil
	}
	prop.ID = uuid.New().String()
	repo.db.proposals[k] = &prop
	return prop, nil
}

func (repo *projectRepository) GetProposal(ctx context.Context, semesterID, projectID string) (project.Proposal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prop, ok := repo.db.proposals[key(semesterID, projectID)]; ok {
		return *prop, nil
	}
	return project.Proposal{}, project.ErrSubmissionMissing
}

func (repo *projectRepository) UpdateProposal(ctx context.Context, prop project.Proposal) (project.Proposal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(prop.SemesterID, prop.ProjectID)
	if _, ok := repo.db.proposals[k]; !ok {
		return project.Proposal{}, project.ErrSubmissionMissing
	}
	repo.db.proposals[k] = &prop
	return prop, nil
}

func (repo *projectRepository) CreatePresentation(ctx context.Context, pres project.Presentation) (project.Presentation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(pres.SemesterID, pres.ProjectID)
	if existing, ok := repo.db.presentations[k]; ok {
		existing.URL = pres.URL
		existing.UpdatedAt = pres.UpdatedAt
		return *existing, nil
	}
	pres.ID = uuid.New().String()
	repo.db.presentations[k] = &pres
	return pres, nil
}

func (repo *projectRepository) GetPresentation(ctx context.Context, semesterID, projectID string) (project.Presentation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pres, ok := repo.db.presentations[key(semesterID, projectID)]; ok {
		return *pres, nil
	}
	return project.Presentation{}, project.ErrSubmissionMissing
}

func (repo *projectRepository) UpdatePresentation(ctx context.Context, pres project.Presentation) (project.Presentation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(pres.SemesterID, pres.ProjectID)
	if _, ok := repo.db.presentations[k]; !ok {
		return project.Presentation{}, project.ErrSubmissionMissing
	}
	repo.db.presentations[k] = &pres
	return pres, nil
}
