package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += ` AND id != ALL($2)`
		args = append(args, pqStringArray(ids))
	}
	q += `)`

	var exists bool
	if err := repo.db.QueryRowxContext(ctx, q, args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	const q = `
		INSERT INTO "user" (
			id, email, first_name, last_name, role, is_approved, is_staff, rcs_id,
			graduation_year, discord_user_id, github_username, password_hash,
			last_login, created_at, updated_at
		) VALUES (
			:id, :email, :first_name, :last_name, :role, :is_approved, :is_staff, :rcs_id,
			:graduation_year, :discord_user_id, :github_username, :password_hash,
			:last_login, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := `SELECT * FROM "user" WHERE `
	var arg interface{}
	switch {
	case filter.ID != "":
		q += "id = $1"
		arg = filter.ID
	case filter.Email != "":
		q += "email = $1"
		arg = filter.Email
	case filter.RcsID != "":
		q += "rcs_id = $1"
		arg = filter.RcsID
	case filter.Discord != "":
		q += "discord_user_id = $1"
		arg = filter.Discord
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := `SELECT u.* FROM "user" u`
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
			q += ` JOIN enrollment e ON e.user_id = u.id AND e.semester_id = ` + next(filter.SemesterID)
		}
		if filter.Search != "" {
			p := next("%" + filter.Search + "%")
			where = append(where,
				"(u.first_name ILIKE "+p+" OR u.last_name ILIKE "+p+" OR u.email ILIKE "+p+" OR u.rcs_id ILIKE "+p+")")
		}
		if filter.Role != "" {
			where = append(where, "u.role = "+next(filter.Role))
		}
		if filter.IsApproved != nil {
			where = append(where, "u.is_approved = "+next(*filter.IsApproved))
		}
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, "u.first_name ASC, u.last_name ASC", map[string]string{
		"first_name": "u.first_name",
		"last_name":  "u.last_name",
		"email":      "u.email",
		"rcs_id":     "u.rcs_id",
		"created_at": "u.created_at",
	})

	users := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isApproved *bool) (user.User, error) {
	orig, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	if err != nil {
		return user.User{}, err
	}

	// merge partial updates
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.FirstName != "" {
		orig.FirstName = usr.FirstName
	}
	if usr.LastName != "" {
		orig.LastName = usr.LastName
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if isApproved != nil {
		orig.IsApproved = *isApproved
	}
	if usr.IsStaff {
		orig.IsStaff = true
	}
	if usr.RcsID != "" {
		orig.RcsID = usr.RcsID
	}
	if usr.GraduationYear.Valid {
		orig.GraduationYear = usr.GraduationYear
	}
	if usr.DiscordUserID != "" {
		orig.DiscordUserID = usr.DiscordUserID
	}
	if usr.GithubUsername != "" {
		orig.GithubUsername = usr.GithubUsername
	}
	if len(usr.PasswordHash) > 0 {
		orig.PasswordHash = usr.PasswordHash
	}
	if usr.LastLogin.Valid {
		orig.LastLogin = usr.LastLogin
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt.UTC()
	}

	const q = `
		UPDATE "user" SET
			email = :email, first_name = :first_name, last_name = :last_name, role = :role,
			is_approved = :is_approved, is_staff = :is_staff, rcs_id = :rcs_id,
			graduation_year = :graduation_year, discord_user_id = :discord_user_id,
			github_username = :github_username, password_hash = :password_hash,
			last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`
	if _, err = repo.db.NamedExecContext(ctx, q, orig); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
