package apiclient

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestDecodeAPIError(t *testing.T) {
	body := []byte(`{"error":true,"code":400,"message":"Validation failed","issues":[{"field":"email","message":"Email is invalid"},{"field":"email","message":"Email is taken"},{"field":"name","message":"Name is required"}]}`)
	err := decodeAPIError(http.StatusBadRequest, body, Request{Method: http.MethodPost, Path: "/users"}, "req-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.Code)
	require.Equal(t, "req-1", apiErr.RequestID)
	require.ErrorIs(t, err, errors.ErrBadRequest)
	require.Equal(t, map[string]string{"email": "Email is invalid", "name": "Name is required"}, apiErr.FieldErrors())
	require.Equal(t, "POST /users: 400 Validation failed", apiErr.Error())

	msg, issues := Describe(fmt.Errorf("saving: %w", err))
	require.Equal(t, "Validation failed", msg)
	require.Len(t, issues, 3)
}

func TestAPIError_Sentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, errors.ErrUnauthorized},
		{http.StatusForbidden, errors.ErrForbidden},
		{http.StatusNotFound, errors.ErrNotFound},
		{http.StatusUnprocessableEntity, errors.ErrBadRequest},
		{http.StatusBadGateway, errors.ErrTemporary},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := decodeAPIError(tt.status, []byte("not json"), Request{Method: http.MethodGet, Path: "/x"}, "")
			require.ErrorIs(t, err, tt.want)
			msg, _ := Describe(err)
			require.Equal(t, defaultErrorMessage, msg)
		})
	}

	require.NoError(t, (&APIError{Status: http.StatusConflict}).Unwrap())
}

func TestListParams(t *testing.T) {
	require.Empty(t, ListParams{}.values())
	require.Equal(t, "limit=5&page=2&search=ad", ListParams{Page: 2, Limit: 5, Search: "ad"}.values().Encode())
}
