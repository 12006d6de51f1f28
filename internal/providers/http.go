package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the upstream service has no such record.
var ErrNotFound = fmt.Errorf("record not found")

// HTTPIdentity reads users from the auth service over its internal API.
type HTTPIdentity struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPIdentity(baseURL, apiKey string, timeout time.Duration) *HTTPIdentity {
	return &HTTPIdentity{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPIdentity) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	if err := getJSON(ctx, p.client, p.apiKey,
		fmt.Sprintf("%s/internal/users/%s", p.baseURL, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// HTTPStudio reads classroom master data from the admin service.
type HTTPStudio struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPStudio(baseURL, apiKey string, timeout time.Duration) *HTTPStudio {
	return &HTTPStudio{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPStudio) GetClassroom(ctx context.Context, id uuid.UUID) (*Classroom, error) {
	var c Classroom
	if err := getJSON(ctx, p.client, p.apiKey,
		fmt.Sprintf("%s/internal/classrooms/%s", p.baseURL, id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *HTTPStudio) ListClassrooms(ctx context.Context, studioID uuid.UUID) ([]*Classroom, error) {
	var out []*Classroom
	if err := getJSON(ctx, p.client, p.apiKey,
		fmt.Sprintf("%s/internal/studios/%s/classrooms", p.baseURL, studioID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, apiKey, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Internal-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("provider returned status %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
