package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/storage/database"
)

const userColumns = "id, username, email, password, role, education_level, created_at"

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	var c conditions
	c.add("username = ? OR email = ?", username, email)
	if len(excludedUsers) > 0 {
		marks := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			marks = append(marks, "?")
			c.args = append(c.args, u.ID)
		}
		c.preds = append(c.preds, "id NOT IN ("+strings.Join(marks, ", ")+")")
	}

	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	q := repo.db.Rebind("SELECT username, email FROM users" + c.where())
	if err := repo.db.SelectContext(ctx, &taken, q, c.args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, u := range taken {
		if u.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`INSERT INTO users (username, email, password, role, education_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := repo.db.QueryRowxContext(ctx, q,
		usr.Username, usr.Email, usr.PasswordHash, usr.Role, string(usr.EducationLevel), usr.CreatedAt.UTC(),
	).Scan(&usr.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var c conditions
	switch {
	case filter.ID != 0:
		c.add("id = ?", filter.ID)
	case filter.Username != "":
		c.add("username = ?", filter.Username)
	case filter.UsernameOrEmail != "":
		c.add("username = ? OR email = ?", filter.UsernameOrEmail, filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	q := repo.db.Rebind("SELECT " + userColumns + " FROM users" + c.where() + " ORDER BY id LIMIT 1")
	if err := repo.db.GetContext(ctx, &usr, q, c.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`UPDATE users SET username = ?, email = ?, password = ?, role = ?, education_level = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		usr.Username, usr.Email, usr.PasswordHash, usr.Role, string(usr.EducationLevel), usr.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return n, nil
}
