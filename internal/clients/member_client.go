package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrMemberNotFound = errors.New("member not found")

// MemberInfo is the member profile exposed by the app API.
type MemberInfo struct {
	ID        int64  `json:"id"`
	LoginID   string `json:"loginId"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	Photo     string `json:"photo"`
	Contents  string `json:"contents"`
	RoleTitle string `json:"roleTitle"`
}

// MemberLookup resolves member profiles. The chat core depends on this
// capability, not on the concrete member service.
type MemberLookup interface {
	GetMemberByID(ctx context.Context, memberID string) (MemberInfo, error)
}

// MemberClient calls the app API over HTTP.
type MemberClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewMemberClient builds a MemberClient against baseURL.
func NewMemberClient(baseURL, token string) *MemberClient {
	return &MemberClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type memberEnvelope struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    MemberInfo `json:"data"`
}

// GetMemberByID fetches a member profile.
func (c *MemberClient) GetMemberByID(ctx context.Context, memberID string) (MemberInfo, error) {
	url := fmt.Sprintf("%s/api/v1/members/%s", c.baseURL, memberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return MemberInfo{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return MemberInfo{}, fmt.Errorf("member api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return MemberInfo{}, ErrMemberNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return MemberInfo{}, fmt.Errorf("member api status %d", resp.StatusCode)
	}

	var envelope memberEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return MemberInfo{}, fmt.Errorf("decode member api response: %w", err)
	}
	return envelope.Data, nil
}
