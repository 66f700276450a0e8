package pushnotification

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/config"
	"github.com/damwatch/taskdesk/internal/pushsubscription"
	"github.com/damwatch/taskdesk/internal/rpc"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

const ServiceName = "PushService"

type GetVapidPublicKeyRequest struct{}

type GetVapidPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type RegisterPushSubscriptionRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dhKey"`
	AuthKey   string `json:"authKey"`
	UserAgent string `json:"userAgent,omitempty"`
}

type RegisterPushSubscriptionResponse struct {
	ID string `json:"id"`
}

type UnregisterPushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
}

type UnregisterPushSubscriptionResponse struct{}

type SendTestNotificationRequest struct{}

type SendTestNotificationResponse struct {
	Delivered int `json:"delivered"`
}

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
	now      func() time.Time
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
		now:      time.Now,
	}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.Unary(ServiceName, "GetVapidPublicKey", s.GetVapidPublicKey, opts...),
		rpc.Unary(ServiceName, "RegisterPushSubscription", s.RegisterPushSubscription, opts...),
		rpc.Unary(ServiceName, "UnregisterPushSubscription", s.UnregisterPushSubscription, opts...),
		rpc.Unary(ServiceName, "SendTestNotification", s.SendTestNotification, opts...),
	}
}

func (s *Server) GetVapidPublicKey(_ context.Context, _ *GetVapidPublicKeyRequest) (*GetVapidPublicKeyResponse, error) {
	if s.vapidEnv.VAPIDPublicKey == "" {
		return nil, cerr.NewError(cerr.FailedPrecondition, "VAPID keys not configured", nil)
	}
	return &GetVapidPublicKeyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey}, nil
}

// RegisterPushSubscription is idempotent per endpoint. Registering a known
// endpoint moves it to the caller and refreshes its keys.
func (s *Server) RegisterPushSubscription(ctx context.Context, req *RegisterPushSubscriptionRequest) (*RegisterPushSubscriptionResponse, error) {
	userID, err := actor.Require(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case req.Endpoint == "":
		return nil, cerr.NewViolation("endpoint", "endpoint is required", nil)
	case req.P256dhKey == "":
		return nil, cerr.NewViolation("p256dhKey", "p256dh key is required", nil)
	case req.AuthKey == "":
		return nil, cerr.NewViolation("authKey", "auth key is required", nil)
	}

	now := s.now()
	sub := &pushsubscription.Subscription{ID: ulid.Make().String(), CreatedAt: now}
	existing, err := s.repo.FindByEndpoint(ctx, req.Endpoint)
	switch {
	case err == nil:
		sub = existing
	case !cerr.IsCode(err, cerr.NotFound):
		return nil, err
	}
	sub.UserID = userID
	sub.Endpoint = req.Endpoint
	sub.P256dhKey = req.P256dhKey
	sub.AuthKey = req.AuthKey
	sub.UserAgent = req.UserAgent
	sub.UpdatedAt = now
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	return &RegisterPushSubscriptionResponse{ID: sub.ID}, nil
}

func (s *Server) UnregisterPushSubscription(ctx context.Context, req *UnregisterPushSubscriptionRequest) (*UnregisterPushSubscriptionResponse, error) {
	if req.Endpoint == "" {
		return nil, cerr.NewViolation("endpoint", "endpoint is required", nil)
	}
	if err := s.repo.DeleteByEndpoint(ctx, req.Endpoint); err != nil {
		return nil, err
	}
	return &UnregisterPushSubscriptionResponse{}, nil
}

func (s *Server) SendTestNotification(ctx context.Context, _ *SendTestNotificationRequest) (*SendTestNotificationResponse, error) {
	userID, err := actor.Require(ctx)
	if err != nil {
		return nil, err
	}
	delivered := s.sender.SendToUser(ctx, userID, &NotificationPayload{
		Title: pushTitle,
		Body:  "Push notifications are working!",
	})
	return &SendTestNotificationResponse{Delivered: delivered}, nil
}
