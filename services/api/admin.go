package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/3bdulrahman-M3/Front/core"
)

// NewAdmin is the payload creating an admin account (super-admin only).
type NewAdmin struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}

func (c *Client) AdminSummary(ctx context.Context) (Object, error) {
	return call[Object](ctx, c, http.MethodGet, "admin/analytics/summary/", nil, nil)
}

func (c *Client) SalesPerCourse(ctx context.Context) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, "admin/sales/courses/", nil, nil)
}

func (c *Client) SalesPerCategory(ctx context.Context) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, "admin/sales/categories/", nil, nil)
}

// RevenueTrends defaults rng to "last_month".
func (c *Client) RevenueTrends(ctx context.Context, rng string) (Object, error) {
	if rng == "" {
		rng = "last_month"
	}
	return call[Object](ctx, c, http.MethodGet, "admin/sales/revenue/", Params{"range": rng}, nil)
}

func (c *Client) InstructorDashboard(ctx context.Context, instructorID int) (Object, error) {
	return call[Object](ctx, c, http.MethodGet, fmt.Sprintf("instructor/%d/dashboard/", instructorID), nil, nil)
}

func (c *Client) AdminCategories(ctx context.Context, query Params) (core.Page[Category], error) {
	return call[core.Page[Category]](ctx, c, http.MethodGet, "admin/categories/", query, nil)
}

func (c *Client) AdminCreateCategory(ctx context.Context, cat Category) (Category, error) {
	return call[Category](ctx, c, http.MethodPost, "admin/categories/create/", nil, cat)
}

func (c *Client) AdminUpdateCategory(ctx context.Context, id int, cat Category) (Category, error) {
	return call[Category](ctx, c, http.MethodPut, fmt.Sprintf("admin/categories/%d/", id), nil, cat)
}

func (c *Client) AdminDeleteCategory(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("admin/categories/%d/delete/", id))
}

func (c *Client) Users(ctx context.Context, query Params) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, "auth/users/", query, nil)
}

func (c *Client) CreateAdmin(ctx context.Context, a NewAdmin) (Object, error) {
	if a.Role == "" {
		a.Role = "admin"
	}
	return call[Object](ctx, c, http.MethodPost, "auth/admin/create/", nil, a)
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("auth/users/%d/delete/", id))
}
