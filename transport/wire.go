package transport

import (
	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/store"
)

// RoleRequest is the body of POST /roles and PUT /roles/{id}.
type RoleRequest struct {
	Name        string             `json:"name" validate:"required,max=128"`
	Parent      string             `json:"parent,omitempty" validate:"max=128"`
	Description string             `json:"description,omitempty" validate:"max=1024"`
	Permissions []permission.Entry `json:"permissions"`
	Version     int64              `json:"version,omitempty" validate:"gte=0"`
}

// RoleResponse is returned by role writes. Warnings are the validator's
// non-blocking findings for the submitted permissions.
type RoleResponse struct {
	Role     store.Record            `json:"role"`
	Warnings []permission.Diagnostic `json:"warnings"`
}

// ValidateRequest is the body of POST /roles/validate.
type ValidateRequest struct {
	Permissions []permission.Entry `json:"permissions" validate:"required"`
}

// AssignRequest is the body of PUT /users/{id}/role.
type AssignRequest struct {
	RoleID string `json:"role_id" validate:"required"`
}

// CatalogModule describes one catalog module for clients rendering an editor.
type CatalogModule struct {
	Key      string              `json:"key"`
	Page     string              `json:"page"`
	Label    string              `json:"label,omitempty"`
	Actions  []permission.Action `json:"actions"`
	Critical bool                `json:"critical,omitempty"`
	ReadOnly bool                `json:"read_only,omitempty"`
}

// CatalogResponse is returned by GET /catalog.
type CatalogResponse struct {
	Version string          `json:"version"`
	Modules []CatalogModule `json:"modules"`
}

// FieldError names a request field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status      int                     `json:"status"`
	Message     string                  `json:"message"`
	Fields      []FieldError            `json:"fields,omitempty"`
	Diagnostics []permission.Diagnostic `json:"diagnostics,omitempty"`
}
