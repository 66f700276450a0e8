package client

import (
	"context"

	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/internal/user"
)

func (c *Client) WhoAmI(ctx context.Context) (*user.User, error) {
	res, err := call[user.WhoAmIRequest, user.UserResponse](ctx, c, user.ServiceName, "WhoAmI", &user.WhoAmIRequest{})
	if err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) ListUsers(ctx context.Context, includeInactive bool) ([]*user.User, error) {
	res, err := call[user.ListUsersRequest, user.ListUsersResponse](ctx, c, user.ServiceName, "ListUsers", &user.ListUsersRequest{IncludeInactive: includeInactive})
	if err != nil {
		return nil, err
	}
	return res.Users, nil
}

func (c *Client) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	res, err := call[user.CreateUserRequest, user.UserResponse](ctx, c, user.ServiceName, "CreateUser", req)
	if err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) SetUserActive(ctx context.Context, id string, active bool) (*user.User, error) {
	res, err := call[user.SetUserActiveRequest, user.UserResponse](ctx, c, user.ServiceName, "SetUserActive", &user.SetUserActiveRequest{ID: id, Active: active})
	if err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) (*notification.ListNotificationsResponse, error) {
	req := &notification.ListNotificationsRequest{UnreadOnly: unreadOnly}
	return call[notification.ListNotificationsRequest, notification.ListNotificationsResponse](ctx, c, notification.ServiceName, "ListNotifications", req)
}

func (c *Client) MarkAllAsRead(ctx context.Context) (int, error) {
	res, err := call[notification.MarkAllAsReadRequest, notification.MarkAllAsReadResponse](ctx, c, notification.ServiceName, "MarkAllAsRead", &notification.MarkAllAsReadRequest{})
	if err != nil {
		return 0, err
	}
	return res.Marked, nil
}
