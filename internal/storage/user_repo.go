package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/requill-tracker/internal/model"
)

// ErrEmailTaken is returned when registering an address that already exists.
var ErrEmailTaken = errors.New("email already registered")

const (
	apiKeyPrefix = "rq_"
	userColumns  = `id, email, password, name, role, api_key, is_active, created_at, updated_at`
)

type UserRepository struct {
	db *Database
}

func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return r.insert(ctx, req.Email, req.Password, req.Name, model.UserRoleUser, false)
}

// CreateAdmin creates the bootstrap admin, leaving an existing account as is.
func (r *UserRepository) CreateAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	return r.insert(ctx, email, password, name, model.UserRoleAdmin, true)
}

func (r *UserRepository) insert(ctx context.Context, email, password, name string, role model.UserRole, upsert bool) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	conflict := ""
	if upsert {
		conflict = `ON CONFLICT (email) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`
	}
	query := `
		INSERT INTO users (email, password, name, role, api_key)
		VALUES ($1, $2, $3, $4, $5) ` + conflict + `
		RETURNING ` + userColumns

	var user model.User
	err = r.db.QueryRowxContext(ctx, query, normalizeEmail(email), string(hashedPassword), name, role, apiKey).
		StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `email = $1`, normalizeEmail(email))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *UserRepository) FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	if !strings.HasPrefix(apiKey, apiKeyPrefix) {
		return nil, nil
	}
	return r.findOne(ctx, `api_key = $1 AND is_active = true`, apiKey)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) ValidatePassword(user *model.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := `UPDATE users SET updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	return err
}

func (r *UserRepository) RegenerateAPIKey(ctx context.Context, userID string) (string, error) {
	apiKey, err := generateAPIKey()
	if err != nil {
		return "", err
	}

	query := `UPDATE users SET api_key = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, apiKey, time.Now(), userID); err != nil {
		return "", fmt.Errorf("failed to rotate API key: %w", err)
	}

	return apiKey, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateAPIKey() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(bytes), nil
}
