package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rohannevrikar/panta-flows-v2/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// UserSummary is the API-facing user shape. The password hash never leaves
// the service layer.
type UserSummary struct {
	UserID    string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Avatar    *string `json:"avatar,omitempty"`
	IsActive  bool    `json:"is_active"`
	Role      string  `json:"role"`
	ClientID  *string `json:"client_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type SignupInput struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	ClientID *string `json:"client_id"`
	Avatar   *string `json:"avatar"`
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserSummary `json:"user"`
}

type AuthService struct {
	db          *sql.DB
	jwtSecret   []byte
	tokenExpiry time.Duration
}

func NewAuthService(db *sql.DB, jwtSecret string, tokenExpiryHours int) *AuthService {
	return &AuthService{
		db:          db,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: time.Duration(tokenExpiryHours) * time.Hour,
	}
}

// Signup creates a user with a bcrypt-hashed password. Role defaults to the
// plain user role; caller-side authorization decides who may set more.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*UserSummary, error) {
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = ?`, in.Email).Scan(&count); err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("email already registered")
	}

	role := in.Role
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleClientAdmin, model.RoleSuperAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, hashed_password, avatar, is_active, role, client_id, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		userID, in.Email, in.Name, string(hashed), in.Avatar, role, in.ClientID, now)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// Login verifies credentials and issues a signed JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, hashed_password, avatar, is_active, role, client_id, created_at
		FROM users WHERE email = ?`, email)

	var (
		u        UserSummary
		hashed   string
		isActive int
	)
	err := row.Scan(&u.UserID, &u.Email, &u.Name, &hashed, &u.Avatar, &isActive, &u.Role, &u.ClientID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if isActive == 0 {
		return nil, fmt.Errorf("account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	u.IsActive = true

	token, err := s.issueToken(&u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer", User: u}, nil
}

func (s *AuthService) issueToken(u *UserSummary) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   u.UserID,
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenExpiry).Unix(),
	}
	if u.ClientID != nil {
		claims["client_id"] = *u.ClientID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ValidateToken parses a bearer token and reconstructs the principal from
// its claims. Only HS256 signatures are accepted.
func (s *AuthService) ValidateToken(tokenString string) (*model.AuthUser, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}
	userID := str("sub")
	if userID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return model.NewAuthUser(userID, str("email"), str("name"), str("role"), str("client_id")), nil
}

// GetUser loads one user by id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*UserSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, avatar, is_active, role, client_id, created_at
		FROM users WHERE id = ?`, userID)
	var (
		u        UserSummary
		isActive int
	)
	err := row.Scan(&u.UserID, &u.Email, &u.Name, &u.Avatar, &isActive, &u.Role, &u.ClientID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.IsActive = isActive == 1
	return &u, nil
}

// ListUsers returns the users of one client, or every user when clientID is
// empty (super admin view).
func (s *AuthService) ListUsers(ctx context.Context, clientID string) ([]UserSummary, error) {
	query := `
		SELECT id, email, name, avatar, is_active, role, client_id, created_at
		FROM users ORDER BY created_at DESC`
	args := []any{}
	if clientID != "" {
		query = `
		SELECT id, email, name, avatar, is_active, role, client_id, created_at
		FROM users WHERE client_id = ? ORDER BY created_at DESC`
		args = append(args, clientID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserSummary
	for rows.Next() {
		var (
			u        UserSummary
			isActive int
		)
		if err := rows.Scan(&u.UserID, &u.Email, &u.Name, &u.Avatar, &isActive, &u.Role, &u.ClientID, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.IsActive = isActive == 1
		out = append(out, u)
	}
	if out == nil {
		out = []UserSummary{}
	}
	return out, rows.Err()
}

// DeactivateUser disables login without deleting history.
func (s *AuthService) DeactivateUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
