package repository

import (
	"database/sql"
	"hotel-user-api/logger"
	"hotel-user-api/model"
	"time"
)

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	ExistsByEmail(email string) (bool, error)
	UpdateLastLogin(userID int, at time.Time) error
	UpdateProfile(user *model.User) error
	GetAllUsers(limit, offset int) ([]*model.User, int, error)
	UpdateUserRole(userID int, newRole string) error
	SetAccountLocked(userID int, locked bool) error
}

// UserRepository implements IUserRepository on top of database/sql.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, username, email, password, first_name, last_name, phone, role,
	email_verified, account_locked, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var firstName, lastName, phone sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		&firstName, &lastName, &phone, &user.Role,
		&user.EmailVerified, &user.AccountLocked, &lastLogin,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Phone = phone.String
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (username, email, password, first_name, last_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	return r.DB.QueryRow(query, user.Username, user.Email, user.Password,
		nullable(user.FirstName), nullable(user.LastName), nullable(user.Phone), user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRow(query, email))
}

func (r *UserRepository) GetUserByID(id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(query, id))
}

func (r *UserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.DB.QueryRow(query, username))
}

func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	err := r.DB.QueryRow(query, email).Scan(&exists)
	return exists, err
}

// UpdateLastLogin records the authentication time. The timestamp is
// assigned at the call site, not by the database.
func (r *UserRepository) UpdateLastLogin(userID int, at time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, at, userID)
	return err
}

func (r *UserRepository) UpdateProfile(user *model.User) error {
	query := `UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4,
		phone = $5, updated_at = $6 WHERE id = $7`
	_, err := r.DB.Exec(query, user.Username, user.Email,
		nullable(user.FirstName), nullable(user.LastName), nullable(user.Phone),
		user.UpdatedAt, user.ID)
	return err
}

// GetAllUsers returns one page of users plus the total row count.
func (r *UserRepository) GetAllUsers(limit, offset int) ([]*model.User, int, error) {
	log := logger.Log.WithField("limit", limit).WithField("offset", offset)

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		log.WithError(err).Error("Failed to count users")
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for user page")
		return nil, 0, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		var firstName, lastName, phone sql.NullString
		var lastLogin sql.NullTime
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password,
			&firstName, &lastName, &phone, &user.Role,
			&user.EmailVerified, &user.AccountLocked, &lastLogin,
			&user.CreatedAt, &user.UpdatedAt); err != nil {
			log.WithError(err).Error("Failed to scan user row")
			return nil, 0, err
		}
		user.FirstName = firstName.String
		user.LastName = lastName.String
		user.Phone = phone.String
		if lastLogin.Valid {
			user.LastLogin = &lastLogin.Time
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) UpdateUserRole(userID int, newRole string) error {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.DB.Exec(query, newRole, userID)
	return err
}

func (r *UserRepository) SetAccountLocked(userID int, locked bool) error {
	query := `UPDATE users SET account_locked = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.DB.Exec(query, locked, userID)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
