package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) emailTaken(email, exclID string) bool {
	for _, row := range repo.db.table {
		if row.usr.Email == email && row.usr.ID != exclID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(usr.Email, "") {
		return user.User{}, user.ErrEmailExists
	}
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	repo.db.seq++
	repo.db.table[usr.ID] = &userRow{seq: repo.db.seq, usr: usr}
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if row, ok := repo.db.table[filter.ID]; ok && (filter.Email == "" || row.usr.Email == filter.Email) {
			return row.usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, row := range repo.db.table {
			if row.usr.Email == filter.Email {
				return row.usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*userRow, 0, len(repo.db.table))
	for _, row := range repo.db.table {
		if filter.Matches(row.usr) {
			rows = append(rows, row)
		}
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareUsers(rows[i], rows[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return rows[i].seq > rows[j].seq
	})

	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.usr
	}
	return users, nil
}

func compareUsers(a, b *userRow, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.usr.Name), strings.ToLower(b.usr.Name))
	case "email":
		return strings.Compare(a.usr.Email, b.usr.Email)
	case "role":
		return strings.Compare(string(a.usr.Role), string(b.usr.Role))
	case "last_login":
		return compareTime(a.usr.LastLogin.UnixNano(), b.usr.LastLogin.UnixNano())
	case "created_at":
		if c := compareTime(a.usr.CreatedAt.UnixNano(), b.usr.CreatedAt.UnixNano()); c != 0 {
			return c
		}
		return compareTime(int64(a.seq), int64(b.seq))
	}
	return 0
}

func compareTime(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, user.ErrEmailExists
	}
	if usr.PasswordHash == nil {
		usr.PasswordHash = row.usr.PasswordHash
	}
	usr.CreatedAt = row.usr.CreatedAt
	row.usr = usr
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	var existing *userRow
	for _, row := range repo.db.table {
		if row.usr.Email == usr.Email {
			existing = row
			break
		}
	}
	repo.db.Unlock()

	if existing == nil {
		return repo.CreateUser(ctx, usr)
	}
	usr.ID = existing.usr.ID
	return repo.UpdateUser(ctx, usr)
}
