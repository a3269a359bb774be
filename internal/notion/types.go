package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DefaultAPIVersion = "2022-06-28"

// Credentials authorize calls against one database.
type Credentials struct {
	Token      string
	DatabaseID string
	APIVersion string
}

// Usable reports whether both the token and the database id are present.
func (c Credentials) Usable() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.DatabaseID) != ""
}

func (c Credentials) version() string {
	if v := strings.TrimSpace(c.APIVersion); v != "" {
		return v
	}
	return DefaultAPIVersion
}

// Property is one typed entry of a page property bag. Value holds the member
// named by Type.
type Property struct {
	ID    string
	Type  string
	Value Value
}

func (p *Property) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["id"]; ok {
		if err := json.Unmarshal(id, &p.ID); err != nil {
			return fmt.Errorf("property id: %w", err)
		}
	}
	if typ, ok := raw["type"]; ok {
		if err := json.Unmarshal(typ, &p.Type); err != nil {
			return fmt.Errorf("property type: %w", err)
		}
	}
	p.Value = Null()
	if body, ok := raw[p.Type]; ok && p.Type != "" {
		if err := json.Unmarshal(body, &p.Value); err != nil {
			return fmt.Errorf("property %s: %w", p.Type, err)
		}
	}
	return nil
}

func (p Property) MarshalJSON() ([]byte, error) {
	out := map[string]any{"id": p.ID, "type": p.Type}
	if p.Type != "" {
		out[p.Type] = p.Value
	}
	return json.Marshal(out)
}

type Page struct {
	ID             string              `json:"id"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	URL            string              `json:"url,omitempty"`
	Archived       bool                `json:"archived,omitempty"`
	Properties     map[string]Property `json:"properties"`
}

type Bookmark struct {
	URL string `json:"url"`
}

type Block struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	HasChildren bool      `json:"has_children"`
	Bookmark    *Bookmark `json:"bookmark,omitempty"`
}

type QueryRequest struct {
	Filter      Value  `json:"filter"`
	PageSize    int    `json:"page_size,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type QueryResponse struct {
	Results    []Page `json:"results"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// PageUpdate is a PATCH body. A nil Archived leaves the flag untouched.
type PageUpdate struct {
	Properties map[string]Value `json:"properties"`
	Archived   *bool            `json:"archived,omitempty"`
}

// Unarchive is the empty patch that restores an archived page.
func Unarchive() PageUpdate {
	archived := false
	return PageUpdate{Properties: map[string]Value{}, Archived: &archived}
}

type BlockChildren struct {
	Results    []Block `json:"results"`
	NextCursor string  `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Client is the subset of the Notion API the sync engine consumes.
type Client interface {
	QueryDatabase(ctx context.Context, creds Credentials, req QueryRequest) (QueryResponse, error)
	UpdatePage(ctx context.Context, creds Credentials, pageID string, req PageUpdate) (Page, error)
	BlockChildren(ctx context.Context, creds Credentials, blockID string, pageSize int, cursor string) (BlockChildren, error)
}
