package domain

import (
	"encoding/json"
	"time"
)

// PromptStatus enumerates the lifecycle states of a prompt.
type PromptStatus string

const (
	StatusDraft      PromptStatus = "draft"
	StatusActive     PromptStatus = "active"
	StatusArchived   PromptStatus = "archived"
	StatusDeprecated PromptStatus = "deprecated"
)

// PromptType enumerates the roles a prompt can take.
type PromptType string

const (
	TypeSystem    PromptType = "system"
	TypeUser      PromptType = "user"
	TypeAssistant PromptType = "assistant"
	TypeTemplate  PromptType = "template"
	TypeFunction  PromptType = "function"
)

// ValidStatus reports whether s is a known prompt status.
func ValidStatus(s PromptStatus) bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived, StatusDeprecated:
		return true
	}
	return false
}

// ValidType reports whether t is a known prompt type.
func ValidType(t PromptType) bool {
	switch t {
	case TypeSystem, TypeUser, TypeAssistant, TypeTemplate, TypeFunction:
		return true
	}
	return false
}

// Category groups prompts. Name is globally unique.
type Category struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	Color       string    `json:"color"       db:"color"`
	IsActive    bool      `json:"is_active"   db:"is_active"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// Tag labels prompts. Name is globally unique.
type Tag struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	Color       string    `json:"color"       db:"color"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// TagUsage is a tag with the number of prompts carrying it.
type TagUsage struct {
	Tag
	UsageCount int `json:"usage_count" db:"usage_count"`
}

// Prompt is the main stored entity.
type Prompt struct {
	ID                string          `json:"id"           db:"id"`
	UserID            string          `json:"-"            db:"user_id"`
	Title             string          `json:"title"        db:"title"`
	Description       string          `json:"description"  db:"description"`
	Content           string          `json:"content"      db:"content"`
	PromptType        PromptType      `json:"prompt_type"  db:"prompt_type"`
	Status            PromptStatus    `json:"status"       db:"status"`
	Version           string          `json:"version"      db:"version"`
	CategoryID        *string         `json:"category_id,omitempty" db:"category_id"`
	Category          *Category       `json:"category,omitempty"`
	Tags              []Tag           `json:"tags"`
	UsageCount        int             `json:"usage_count"  db:"usage_count"`
	LastUsedAt        *time.Time      `json:"last_used_at,omitempty" db:"last_used_at"`
	IsPublic          bool            `json:"is_public"    db:"is_public"`
	IsFavorite        bool            `json:"is_favorite"  db:"is_favorite"`
	IsTemplate        bool            `json:"is_template"  db:"is_template"`
	TemplateVariables json.RawMessage `json:"template_variables,omitempty" db:"template_variables"`
	SourceURL         string          `json:"source_url,omitempty"  db:"source_url"`
	SourceType        string          `json:"source_type,omitempty" db:"source_type"`
	ContentHash       string          `json:"-"            db:"content_hash"`
	CreatedAt         time.Time       `json:"created_at"   db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"   db:"updated_at"`
	Versions          []PromptVersion `json:"versions,omitempty"`
}

// PromptVersion is one entry of a prompt's version history.
type PromptVersion struct {
	ID            string    `json:"id"              db:"id"`
	PromptID      string    `json:"prompt_id"       db:"prompt_id"`
	Version       string    `json:"version"         db:"version"`
	Title         string    `json:"title"           db:"title"`
	Description   string    `json:"description"     db:"description"`
	Content       string    `json:"content"         db:"content"`
	ChangeLog     string    `json:"change_log"      db:"change_log"`
	IsMajorChange bool      `json:"is_major_change" db:"is_major_change"`
	CreatedAt     time.Time `json:"created_at"      db:"created_at"`
}

// PromptFilter narrows a prompt listing. Zero values mean "no filter";
// pointer fields distinguish "unset" from "false".
type PromptFilter struct {
	Search     string
	CategoryID string
	Tags       []string // prompts must carry ALL listed tags
	Type       PromptType
	Status     PromptStatus
	IsPublic   *bool
	IsFavorite *bool
	SortBy     string // created_at, updated_at, title, usage_count
	SortOrder  string // asc, desc
	Limit      int
	Offset     int
}

// PromptUpdate is an explicit partial update: nil fields are left unchanged.
type PromptUpdate struct {
	Title             *string
	Description       *string
	Content           *string
	CategoryID        *string // pointer to empty string clears the category
	Tags              []string
	TagsSet           bool // distinguishes "replace with empty" from "untouched"
	Status            *PromptStatus
	IsPublic          *bool
	IsFavorite        *bool
	TemplateVariables json.RawMessage
	CreateVersion     bool
	VersionComment    string
}
