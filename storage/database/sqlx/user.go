package sqlxrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

const userColumns = `id, name, role, phone, email, student_id, class_level, is_active, password_hash,
	created_at, updated_at, last_login`

var userOrderings = map[string]string{
	"name":       "LOWER(name)",
	"email":      "email",
	"role":       "role",
	"last_login": "last_login",
	"created_at": "created_at",
}

type userRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Role         string      `db:"role"`
	Phone        string      `db:"phone"`
	Email        string      `db:"email"`
	StudentID    null.String `db:"student_id"`
	ClassLevel   null.String `db:"class_level"`
	IsActive     bool        `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func toUserRow(u user.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Role:         string(u.Role),
		Phone:        u.Phone,
		Email:        u.Email,
		StudentID:    null.NewString(u.StudentID, u.StudentID != ""),
		ClassLevel:   null.NewString(u.ClassLevel, u.ClassLevel != ""),
		IsActive:     u.IsActive,
		PasswordHash: null.NewBytes(u.PasswordHash, u.PasswordHash != nil),
		CreatedAt:    null.TimeFrom(u.CreatedAt),
		UpdatedAt:    null.TimeFrom(u.UpdatedAt),
		LastLogin:    null.NewTime(u.LastLogin, !u.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Role:         user.Role(r.Role),
		Phone:        r.Phone,
		Email:        r.Email,
		StudentID:    r.StudentID.String,
		ClassLevel:   r.ClassLevel.String,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.Time.UTC(),
		UpdatedAt:    r.UpdatedAt.Time.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (
		:id, :name, :role, :phone, :email, :student_id, :class_level, :is_active, :password_hash,
		:created_at, :updated_at, :last_login)`, toUserRow(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(mapErr(err), "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	if filter.ID != "" {
		w.add("id = ?", filter.ID)
	}
	if filter.Email != "" {
		w.add("email = ?", filter.Email)
	}
	if len(w.conds) == 0 {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users`+w.String(), w.args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(mapErr(err), "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var w where
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		w.add("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?)", pattern, pattern, pattern)
	}
	if filter.Roles != nil {
		roles := make([]string, len(filter.Roles))
		for i, r := range filter.Roles {
			roles[i] = string(r)
		}
		w.add("role = ANY(?)", pq.Array(roles))
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.IDs != nil {
		w.add("id = ANY(?)", pq.Array(filter.IDs))
	}

	q := `SELECT ` + userColumns + ` FROM users` + w.String() +
		core.OrderByClause(ordering, userOrderings, core.DBOrdering{Field: "created_at"})

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(mapErr(err), "selecting users")
	}
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.toUser()
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, role = :role, phone = :phone, email = :email,
		student_id = :student_id, class_level = :class_level, is_active = :is_active,
		password_hash = COALESCE(:password_hash, password_hash), updated_at = :updated_at, last_login = :last_login
		WHERE id = :id RETURNING ` + userColumns

	rows, err := repo.db.NamedQueryContext(ctx, q, toUserRow(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(mapErr(err), "updating user")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return user.User{}, errors.Wrap(mapErr(err), "updating user")
		}
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	if err = rows.StructScan(&row); err != nil {
		return user.User{}, errors.Wrap(err, "scanning user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	existing, err := repo.GetUser(ctx, user.GetFilter{Email: usr.Email})
	switch {
	case err == nil:
		usr.ID = existing.ID
		return repo.UpdateUser(ctx, usr)
	case errors.Cause(err) == user.ErrNotFound:
		return repo.CreateUser(ctx, usr)
	}
	return user.User{}, err
}
