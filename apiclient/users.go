package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// RoleAll is the role filter value meaning no filter
const RoleAll = "all"

// ManagedUser is a user as listed on the management screens
type ManagedUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsActive  bool   `json:"isActive"`
	RoleID    string `json:"roleId"`
	RoleName  string `json:"roleName"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// UserFilters narrows a user list
type UserFilters struct {
	ListParams
	Role string
}

// UserInput is the create and update body. An empty Password on update keeps
// the current one.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	RoleID   string `json:"roleId"`
	IsActive bool   `json:"isActive"`
}

// Page is one page of a list endpoint
type Page[T any] struct {
	Data       []T
	Pagination Pagination
}

// Result is a mutation outcome with the backend's message
type Result[T any] struct {
	Data    T
	Message string
}

// UsersAPI wraps the /users endpoints
type UsersAPI struct {
	client *Client
}

func NewUsersAPI(client *Client) *UsersAPI {
	return &UsersAPI{client: client}
}

func (u *UsersAPI) List(ctx context.Context, filters UserFilters) (*Page[ManagedUser], error) {
	q := filters.values()
	if filters.Role != "" && filters.Role != RoleAll {
		q.Set("role", filters.Role)
	}
	env, err := call[[]ManagedUser](ctx, u.client, Request{Method: http.MethodGet, Path: "/users", Query: q})
	if err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (u *UsersAPI) Get(ctx context.Context, id string) (*ManagedUser, error) {
	env, err := call[ManagedUser](ctx, u.client, Request{Method: http.MethodGet, Path: userPath(id)})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (u *UsersAPI) Create(ctx context.Context, input UserInput) (*Result[ManagedUser], error) {
	env, err := call[ManagedUser](ctx, u.client, Request{Method: http.MethodPost, Path: "/users", Body: input})
	if err != nil {
		return nil, err
	}
	return &Result[ManagedUser]{Data: env.Data, Message: env.Message}, nil
}

func (u *UsersAPI) Update(ctx context.Context, id string, input UserInput) (*Result[ManagedUser], error) {
	env, err := call[ManagedUser](ctx, u.client, Request{Method: http.MethodPatch, Path: userPath(id), Body: input})
	if err != nil {
		return nil, err
	}
	return &Result[ManagedUser]{Data: env.Data, Message: env.Message}, nil
}

// Delete removes a user. Success mirrors the envelope's error flag.
func (u *UsersAPI) Delete(ctx context.Context, id string) (*Result[bool], error) {
	env, err := call[ManagedUser](ctx, u.client, Request{Method: http.MethodDelete, Path: userPath(id)})
	if err != nil {
		return nil, err
	}
	return &Result[bool]{Data: !env.Error, Message: env.Message}, nil
}

func userPath(id string) string {
	return fmt.Sprintf("/users/%s", url.PathEscape(id))
}

func toPage[T any](env *Envelope[[]T]) *Page[T] {
	page := &Page[T]{Data: env.Data}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	}
	return page
}
