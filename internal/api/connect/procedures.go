package connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ControlServiceName is the fully-qualified name of the control service.
const ControlServiceName = "autodj.v1.ControlService"

// Procedure paths of the control service.
const (
	GetStatusProcedure  = "/" + ControlServiceName + "/GetStatus"
	SetEnabledProcedure = "/" + ControlServiceName + "/SetEnabled"
	SubscribeProcedure  = "/" + ControlServiceName + "/Subscribe"
)

// ControlServiceHandler is the server side of the control service.
type ControlServiceHandler interface {
	GetStatus(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error)
	SetEnabled(context.Context, *connect.Request[wrapperspb.BoolValue]) (*connect.Response[structpb.Struct], error)
	Subscribe(context.Context, *connect.Request[emptypb.Empty], *connect.ServerStream[structpb.Struct]) error
}

// NewControlServiceHandler builds an HTTP handler for the control service and
// returns the path it should be mounted on.
func NewControlServiceHandler(svc ControlServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(SetEnabledProcedure, connect.NewUnaryHandler(SetEnabledProcedure, svc.SetEnabled, opts...))
	mux.Handle(SubscribeProcedure, connect.NewServerStreamHandler(SubscribeProcedure, svc.Subscribe, opts...))
	return "/" + ControlServiceName + "/", mux
}

// ControlServiceClient is a client for the control service.
type ControlServiceClient struct {
	getStatus  *connect.Client[emptypb.Empty, structpb.Struct]
	setEnabled *connect.Client[wrapperspb.BoolValue, structpb.Struct]
	subscribe  *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewControlServiceClient creates a client for the server at baseURL.
func NewControlServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ControlServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &ControlServiceClient{
		getStatus:  connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
		setEnabled: connect.NewClient[wrapperspb.BoolValue, structpb.Struct](httpClient, baseURL+SetEnabledProcedure, opts...),
		subscribe:  connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SubscribeProcedure, opts...),
	}
}

// GetStatus calls autodj.v1.ControlService.GetStatus.
func (c *ControlServiceClient) GetStatus(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	return c.getStatus.CallUnary(ctx, req)
}

// SetEnabled calls autodj.v1.ControlService.SetEnabled.
func (c *ControlServiceClient) SetEnabled(ctx context.Context, req *connect.Request[wrapperspb.BoolValue]) (*connect.Response[structpb.Struct], error) {
	return c.setEnabled.CallUnary(ctx, req)
}

// Subscribe calls autodj.v1.ControlService.Subscribe.
func (c *ControlServiceClient) Subscribe(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.ServerStreamForClient[structpb.Struct], error) {
	return c.subscribe.CallServerStream(ctx, req)
}
