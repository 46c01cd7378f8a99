package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/automix/internal/app/notification"
	"github.com/osa030/automix/internal/app/runner"
	"github.com/osa030/automix/internal/app/session"
)

// ControlService implements the ControlService RPC.
type ControlService struct {
	session *session.Manager
}

// NewControlService creates a new ControlService.
func NewControlService(mgr *session.Manager) *ControlService {
	return &ControlService{session: mgr}
}

// Ensure ControlService implements the interface.
var _ ControlServiceHandler = (*ControlService)(nil)

// GetStatus returns the current controller status.
func (s *ControlService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return connect.NewResponse(session.StatusStruct(s.session.GetStatus())), nil
}

// SetEnabled switches AutoDJ on or off and returns the resulting status.
func (s *ControlService) SetEnabled(
	ctx context.Context,
	req *connect.Request[wrapperspb.BoolValue],
) (*connect.Response[structpb.Struct], error) {
	enabled := req.Msg.GetValue()
	if err := s.session.SetEnabled(enabled); err != nil {
		if errors.Is(err, runner.ErrNotStarted) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	zlog.Info().Msgf("connect: autodj toggled via api: enabled=%v", enabled)
	return connect.NewResponse(session.StatusStruct(s.session.GetStatus())), nil
}

// Subscribe streams the current state followed by controller events.
func (s *ControlService) Subscribe(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	notifManager := s.session.GetNotificationManager()

	initial := session.InitialStateStruct(s.session.GetStatus())
	notification.Stamp(initial, notifManager.NextSequenceNo())
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := notifManager.Subscribe(adapter)
	defer notifManager.Unsubscribe(subscriptionID)

	zlog.Debug().Msgf("connect: subscriber attached: subscription=%s", subscriptionID)

	// Wait for context cancellation or session end
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}

	zlog.Debug().Msgf("connect: subscriber detached: subscription=%s", subscriptionID)
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[structpb.Struct]
}

func (a *notificationStreamAdapter) Send(n *structpb.Struct) error {
	return a.stream.Send(n)
}
