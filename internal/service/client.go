package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClientSummary is the API-facing tenant shape. API keys are stored as a
// JSON object keyed by integration name.
type ClientSummary struct {
	ClientID       string            `json:"id"`
	Name           string            `json:"name"`
	Code           string            `json:"code"`
	PrimaryColor   string            `json:"primary_color"`
	SecondaryColor *string           `json:"secondary_color,omitempty"`
	AccentColor    *string           `json:"accent_color,omitempty"`
	Logo           *string           `json:"logo,omitempty"`
	Tagline        *string           `json:"tagline,omitempty"`
	APIKeys        map[string]string `json:"api_keys"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      *string           `json:"updated_at,omitempty"`
}

type CreateClientInput struct {
	Name           string            `json:"name"`
	Code           string            `json:"code"`
	PrimaryColor   string            `json:"primary_color"`
	SecondaryColor *string           `json:"secondary_color"`
	AccentColor    *string           `json:"accent_color"`
	Logo           *string           `json:"logo"`
	Tagline        *string           `json:"tagline"`
	APIKeys        map[string]string `json:"api_keys"`
}

type UpdateClientInput struct {
	Name           *string           `json:"name"`
	PrimaryColor   *string           `json:"primary_color"`
	SecondaryColor *string           `json:"secondary_color"`
	AccentColor    *string           `json:"accent_color"`
	Logo           *string           `json:"logo"`
	Tagline        *string           `json:"tagline"`
	APIKeys        map[string]string `json:"api_keys"`
}

type ClientService struct {
	db *sql.DB
}

func NewClientService(db *sql.DB) *ClientService {
	return &ClientService{db: db}
}

const clientColumns = `id, name, code, primary_color, secondary_color, accent_color, logo, tagline, api_keys, created_at, updated_at`

func (s *ClientService) List(ctx context.Context) ([]ClientSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ClientSummary{}
	for rows.Next() {
		c, err := scanClientRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *ClientService) Get(ctx context.Context, clientID string) (*ClientSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, clientID)
	c, err := scanClientRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetByCode resolves a tenant by its short code, used by login branding.
func (s *ClientService) GetByCode(ctx context.Context, code string) (*ClientSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE code = ?`, code)
	c, err := scanClientRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *ClientService) Create(ctx context.Context, in CreateClientInput) (*ClientSummary, error) {
	if in.Name == "" || in.Code == "" {
		return nil, fmt.Errorf("name and code are required")
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM clients WHERE code = ?`, in.Code).Scan(&count); err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("client code %q already exists", in.Code)
	}

	primary := in.PrimaryColor
	if primary == "" {
		primary = "#1976d2"
	}
	apiKeys := in.APIKeys
	if apiKeys == nil {
		apiKeys = map[string]string{}
	}
	encodedKeys, err := json.Marshal(apiKeys)
	if err != nil {
		return nil, err
	}

	clientID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, code, primary_color, secondary_color, accent_color, logo, tagline, api_keys, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		clientID, in.Name, in.Code, primary, in.SecondaryColor, in.AccentColor,
		in.Logo, in.Tagline, string(encodedKeys), now)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, clientID)
}

func (s *ClientService) Update(ctx context.Context, clientID string, in UpdateClientInput) (*ClientSummary, error) {
	existing, err := s.Get(ctx, clientID)
	if err != nil || existing == nil {
		return existing, err
	}

	name := existing.Name
	if in.Name != nil {
		name = *in.Name
	}
	primary := existing.PrimaryColor
	if in.PrimaryColor != nil {
		primary = *in.PrimaryColor
	}
	secondary := existing.SecondaryColor
	if in.SecondaryColor != nil {
		secondary = in.SecondaryColor
	}
	accent := existing.AccentColor
	if in.AccentColor != nil {
		accent = in.AccentColor
	}
	logo := existing.Logo
	if in.Logo != nil {
		logo = in.Logo
	}
	tagline := existing.Tagline
	if in.Tagline != nil {
		tagline = in.Tagline
	}
	apiKeys := existing.APIKeys
	if in.APIKeys != nil {
		apiKeys = in.APIKeys
	}
	encodedKeys, err := json.Marshal(apiKeys)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, primary_color = ?, secondary_color = ?, accent_color = ?, logo = ?, tagline = ?, api_keys = ?, updated_at = ?
		WHERE id = ?`,
		name, primary, secondary, accent, logo, tagline, string(encodedKeys),
		time.Now().UTC().Format(time.RFC3339Nano), clientID)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, clientID)
}

func (s *ClientService) Delete(ctx context.Context, clientID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, clientID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanClientRow(scan func(dest ...any) error) (*ClientSummary, error) {
	var (
		c       ClientSummary
		rawKeys string
	)
	err := scan(&c.ClientID, &c.Name, &c.Code, &c.PrimaryColor, &c.SecondaryColor,
		&c.AccentColor, &c.Logo, &c.Tagline, &rawKeys, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.APIKeys = map[string]string{}
	if rawKeys != "" {
		if err := json.Unmarshal([]byte(rawKeys), &c.APIKeys); err != nil {
			return nil, fmt.Errorf("decode api keys for client %s: %w", c.ClientID, err)
		}
	}
	return &c, nil
}
