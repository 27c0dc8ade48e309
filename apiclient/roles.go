package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-admin-console/rbac"
)

// RoleListItem is a role as listed
type RoleListItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Role is a role with its permissions
type Role struct {
	RoleListItem
	Permissions []rbac.RolePermission `json:"permissions"`
}

// RoleOption is a role choice for user forms
type RoleOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Feature is a permission-gated area of the console
type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// RoleInput is the create and update body
type RoleInput struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Permissions []rbac.PermissionInput `json:"permissions"`
}

// RolesAPI wraps the /rbac endpoints
type RolesAPI struct {
	client *Client
}

func NewRolesAPI(client *Client) *RolesAPI {
	return &RolesAPI{client: client}
}

func (r *RolesAPI) List(ctx context.Context, params ListParams) (*Page[RoleListItem], error) {
	env, err := call[[]RoleListItem](ctx, r.client, Request{Method: http.MethodGet, Path: "/rbac/roles", Query: params.values()})
	if err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (r *RolesAPI) Get(ctx context.Context, id string) (*Role, error) {
	env, err := call[Role](ctx, r.client, Request{Method: http.MethodGet, Path: rolePath(id)})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (r *RolesAPI) Create(ctx context.Context, input RoleInput) (*Role, error) {
	env, err := call[Role](ctx, r.client, Request{Method: http.MethodPost, Path: "/rbac/roles", Body: input})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (r *RolesAPI) Update(ctx context.Context, id string, input RoleInput) (*Role, error) {
	env, err := call[Role](ctx, r.client, Request{Method: http.MethodPatch, Path: rolePath(id), Body: input})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (r *RolesAPI) Delete(ctx context.Context, id string) (*Result[bool], error) {
	env, err := call[RoleListItem](ctx, r.client, Request{Method: http.MethodDelete, Path: rolePath(id)})
	if err != nil {
		return nil, err
	}
	return &Result[bool]{Data: !env.Error, Message: env.Message}, nil
}

// Options lists every role as a selectable option
func (r *RolesAPI) Options(ctx context.Context) (*Page[RoleOption], error) {
	env, err := call[[]RoleOption](ctx, r.client, Request{Method: http.MethodGet, Path: "/rbac/roles/options"})
	if err != nil {
		return nil, err
	}
	return toPage(env), nil
}

// MyPermissions loads the signed-in user's role and permission set
func (r *RolesAPI) MyPermissions(ctx context.Context) (*rbac.MyPermissions, error) {
	env, err := call[rbac.MyPermissions](ctx, r.client, Request{Method: http.MethodGet, Path: "/rbac/roles/me"})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (r *RolesAPI) Features(ctx context.Context, params ListParams) (*Page[Feature], error) {
	env, err := call[[]Feature](ctx, r.client, Request{Method: http.MethodGet, Path: "/rbac/features", Query: params.values()})
	if err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func rolePath(id string) string {
	return fmt.Sprintf("/rbac/roles/%s", url.PathEscape(id))
}
