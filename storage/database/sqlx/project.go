package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/project"
)

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *sqlx.DB) *projectRepository {
	return &projectRepository{db: db}
}

func (repo projectRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return project.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo projectRepository) trapNoSubmissionErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return project.ErrSubmissionMissing
	}
	return errors.Wrap(err, msg)
}

func (repo projectRepository) CreateProject(ctx context.Context, proj project.Project) (project.Project, error) {
	proj.ID = uuid.New().String()
	const q = `
		INSERT INTO project (
			id, slug, name, owner_id, is_approved, summary, external_chat_url, homepage_url,
			discord_role_id, discord_text_channel_id, discord_voice_channel_id, created_at, updated_at
		) VALUES (
			:id, :slug, :name, :owner_id, :is_approved, :summary, :external_chat_url, :homepage_url,
			:discord_role_id, :discord_text_channel_id, :discord_voice_channel_id, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, proj); err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return proj, nil
}

func (repo projectRepository) GetProject(ctx context.Context, filter project.GetFilter) (project.Project, error) {
	q := `SELECT * FROM project WHERE `
	var arg interface{}
	switch {
	case filter.ID != "":
		q += "id = $1"
		arg = filter.ID
	case filter.Slug != "":
		q += "slug = $1"
		arg = filter.Slug
	case filter.Name != "":
		q += "lower(name) = lower($1)"
		arg = filter.Name
	default:
		return project.Project{}, project.ErrNotFound
	}

	var proj project.Project
	if err := repo.db.GetContext(ctx, &proj, q, arg); err != nil {
		return project.Project{}, repo.trapNoRowsErr(err, "getting project")
	}
	if err := repo.loadTags(ctx, &proj); err != nil {
		return project.Project{}, err
	}
	return proj, nil
}

func (repo projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, ordering []core.DBOrdering) ([]project.Project, error) {
	q := `SELECT DISTINCT p.* FROM project p`
	var (
		where []string
		args  []interface{}
	)
	next := func(arg interface{}) string {
		args = append(args, arg)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.SemesterID != "" {
			q += ` JOIN enrollment e ON e.project_id = p.id AND e.semester_id = ` + next(filter.SemesterID)
		}
		if filter.SeekingMembers {
			q += ` JOIN project_pitch pp ON pp.project_id = p.id`
			if filter.SemesterID != "" {
				q += ` AND pp.semester_id = ` + next(filter.SemesterID)
			}
		}
		if filter.Search != "" {
			p := next("%" + filter.Search + "%")
			where = append(where, "(p.name ILIKE "+p+" OR p.summary ILIKE "+p+")")
		}
		if filter.IsApproved != nil {
			where = append(where, "p.is_approved = "+next(*filter.IsApproved))
		}
		if filter.OwnerID != "" {
			where = append(where, "p.owner_id = "+next(filter.OwnerID))
		}
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, "p.name ASC", map[string]string{
		"name":       "p.name",
		"created_at": "p.created_at",
		"updated_at": "p.updated_at",
	})

	projs := make([]project.Project, 0)
	if err := repo.db.SelectContext(ctx, &projs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	for i := range projs {
		if err := repo.loadTags(ctx, &projs[i]); err != nil {
			return nil, err
		}
	}
	return projs, nil
}

func (repo projectRepository) UpdateProject(ctx context.Context, proj project.Project) (project.Project, error) {
	const q = `
		UPDATE project SET
			slug = :slug, name = :name, owner_id = :owner_id, is_approved = :is_approved,
			summary = :summary, external_chat_url = :external_chat_url, homepage_url = :homepage_url,
			discord_role_id = :discord_role_id, discord_text_channel_id = :discord_text_channel_id,
			discord_voice_channel_id = :discord_voice_channel_id, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, proj); err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	return proj, nil
}

func (repo projectRepository) CountOwnedProjects(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM project WHERE owner_id = $1`, ownerID)
	return count, errors.Wrap(err, "counting owned projects")
}

func (repo projectRepository) CountProjectSemesters(ctx context.Context, projectID string) (int, error) {
	const q = `SELECT COUNT(DISTINCT semester_id) FROM enrollment WHERE project_id = $1`
	var count int
	err := repo.db.GetContext(ctx, &count, q, projectID)
	return count, errors.Wrap(err, "counting project semesters")
}

func (repo projectRepository) loadTags(ctx context.Context, proj *project.Project) error {
	tags := make([]string, 0)
	const q = `SELECT tag FROM project_tag WHERE project_id = $1 ORDER BY tag`
	if err := repo.db.SelectContext(ctx, &tags, q, proj.ID); err != nil {
		return errors.Wrap(err, "loading project tags")
	}
	proj.Tags = tags
	return nil
}

func (repo projectRepository) SetProjectTags(ctx context.Context, projectID string, tags []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "setting project tags")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM project_tag WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrap(err, "clearing project tags")
	}
	if len(tags) > 0 {
		const q = `INSERT INTO project_tag (project_id, tag) SELECT $1, unnest($2::varchar[]) ON CONFLICT DO NOTHING`
		if _, err = tx.ExecContext(ctx, q, projectID, pq.Array(tags)); err != nil {
			return errors.Wrap(err, "inserting project tags")
		}
	}
	return errors.Wrap(tx.Commit(), "setting project tags")
}

func (repo projectRepository) QueryRepositories(ctx context.Context, projectID string) ([]project.RepoLink, error) {
	repos := make([]project.RepoLink, 0)
	const q = `SELECT * FROM project_repository WHERE project_id = $1 ORDER BY url`
	if err := repo.db.SelectContext(ctx, &repos, q, projectID); err != nil {
		return nil, errors.Wrap(err, "querying project repositories")
	}
	return repos, nil
}

func (repo projectRepository) SetRepositories(ctx context.Context, projectID string, urls []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "setting project repositories")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM project_repository WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrap(err, "clearing project repositories")
	}
	for _, url := range urls {
		const q = `
			INSERT INTO project_repository (id, project_id, url, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT DO NOTHING`
		if _, err = tx.ExecContext(ctx, q, uuid.New().String(), projectID, url); err != nil {
			return errors.Wrap(err, "inserting project repository")
		}
	}
	return errors.Wrap(tx.Commit(), "setting project repositories")
}

func (repo projectRepository) CreatePitch(ctx context.Context, pitch project.Pitch) (project.Pitch, error) {
	pitch.ID = uuid.New().String()
	const q = `
		INSERT INTO project_pitch (id, semester_id, project_id, url, created_at, updated_at)
		VALUES (:id, :semester_id, :project_id, :url, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, pitch); err != nil {
		return project.Pitch{}, errors.Wrap(err, "inserting pitch")
	}
	return pitch, nil
}

func (repo projectRepository) GetPitch(ctx context.Context, semesterID, projectID string) (project.Pitch, error) {
	const q = `SELECT * FROM project_pitch WHERE semester_id = $1 AND project_id = $2`
	var pitch project.Pitch
	if err := repo.db.GetContext(ctx, &pitch, q, semesterID, projectID); err != nil {
		return project.Pitch{}, repo.trapNoSubmissionErr(err, "getting pitch")
	}
	return pitch, nil
}

func (repo projectRepository) QueryPitches(ctx context.Context, semesterID string) ([]project.Pitch, error) {
	pitches := make([]project.Pitch, 0)
	const q = `SELECT * FROM project_pitch WHERE semester_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &pitches, q, semesterID); err != nil {
		return nil, errors.Wrap(err, "querying pitches")
	}
	return pitches, nil
}

func (repo projectRepository) CreateProposal(ctx context.Context, prop project.Proposal) (project.Proposal, error) {
	prop.ID = uuid.New().String()
	const q = `
		INSERT INTO project_proposal (id, semester_id, project_id, url, grade, grader_id, grader_comments, created_at, updated_at)
		VALUES (:id, :semester_id, :project_id, :url, :grade, :grader_id, :grader_comments, :created_at, :updated_at)
		ON CONFLICT (semester_id, project_id) DO UPDATE SET url = EXCLUDED.url, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, prop); err != nil {
		return project.Proposal{}, errors.Wrap(err, "inserting proposal")
	}
	return repo.GetProposal(ctx, prop.SemesterID, prop.ProjectID)
}

func (repo projectRepository) GetProposal(ctx context.Context, semesterID, projectID string) (project.Proposal, error) {
	const q = `SELECT * FROM project_proposal WHERE semester_id = $1 AND project_id = $2`
	var prop project.Proposal
	if err := repo.db.GetContext(ctx, &prop, q, semesterID, projectID); err != nil {
		return project.Proposal{}, repo.trapNoSubmissionErr(err, "getting proposal")
	}
	return prop, nil
}

func (repo projectRepository) UpdateProposal(ctx context.Context, prop project.Proposal) (project.Proposal, error) {
	const q = `
		UPDATE project_proposal SET
			url = :url, grade = :grade, grader_id = :grader_id,
			grader_comments = :grader_comments, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, prop); err != nil {
		return project.Proposal{}, errors.Wrap(err, "updating proposal")
	}
	return prop, nil
}

func (repo projectRepository) CreatePresentation(ctx context.Context, pres project.Presentation) (project.Presentation, error) {
	pres.ID = uuid.New().String()
	const q = `
		INSERT INTO project_presentation (id, semester_id, project_id, url, grade, grader_id, grader_comments, created_at, updated_at)
		VALUES (:id, :semester_id, :project_id, :url, :grade, :grader_id, :grader_comments, :created_at, :updated_at)
		ON CONFLICT (semester_id, project_id) DO UPDATE SET url = EXCLUDED.url, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, pres); err != nil {
		return project.Presentation{}, errors.Wrap(err, "inserting presentation")
	}
	return repo.GetPresentation(ctx, pres.SemesterID, pres.ProjectID)
}

func (repo projectRepository) GetPresentation(ctx context.Context, semesterID, projectID string) (project.Presentation, error) {
	const q = `SELECT * FROM project_presentation WHERE semester_id = $1 AND project_id = $2`
	var pres project.Presentation
	if err := repo.db.GetContext(ctx, &pres, q, semesterID, projectID); err != nil {
		return project.Presentation{}, repo.trapNoSubmissionErr(err, "getting presentation")
	}
	return pres, nil
}

func (repo projectRepository) UpdatePresentation(ctx context.Context, pres project.Presentation) (project.Presentation, error) {
	const q = `
		UPDATE project_presentation SET
			url = :url, grade = :grade, grader_id = :grader_id,
			grader_comments = :grader_comments, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, pres); err != nil {
		return project.Presentation{}, errors.Wrap(err, "updating presentation")
	}
	return pres, nil
}
