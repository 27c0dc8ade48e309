package apiclient

import (
	"context"
	"net/http"
)

// UserDistribution is the user count for one role
type UserDistribution struct {
	RoleName string `json:"roleName"`
	Count    int    `json:"count"`
}

// DashboardData is the dashboard summary
type DashboardData struct {
	TotalUsers       int                `json:"totalUsers"`
	ActiveUsers      int                `json:"activeUsers"`
	InactiveUsers    int                `json:"inactiveUsers"`
	TotalRoles       int                `json:"totalRoles"`
	TotalFeatures    int                `json:"totalFeatures"`
	UserDistribution []UserDistribution `json:"userDistribution"`
}

type DashboardAPI struct {
	client *Client
}

func NewDashboardAPI(client *Client) *DashboardAPI {
	return &DashboardAPI{client: client}
}

func (d *DashboardAPI) Stats(ctx context.Context) (*DashboardData, error) {
	env, err := call[DashboardData](ctx, d.client, Request{Method: http.MethodGet, Path: "/dashboard"})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}
