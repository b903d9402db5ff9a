// Package rpc describes the afterlog.v1.Afterlog gRPC service.
//
// Messages are google.protobuf.Struct values carrying the JSON shapes in
// messages.go, so the service needs no generated code. The descriptor and
// the typed client below follow what protoc-gen-go-grpc emits.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "afterlog.v1.Afterlog"

const (
	MethodSignUp  = "SignUp"
	MethodSignIn  = "SignIn"
	MethodRefresh = "Refresh"
	MethodSignOut = "SignOut"
	MethodPing    = "Ping"
	MethodInsert  = "Insert"
	MethodUpdate  = "Update"
	MethodDelete  = "Delete"
	MethodQuery   = "Query"
	MethodExport  = "Export"
)

// FullMethod returns the path of method as seen by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	FullMethod(MethodSignUp):  true,
	FullMethod(MethodSignIn):  true,
	FullMethod(MethodRefresh): true,
	FullMethod(MethodSignOut): true,
	FullMethod(MethodPing):    true,
}

// Server is the server API of the Afterlog service.
type Server interface {
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignOut(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Insert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterServer attaches srv to s.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req proto.Message, Resp proto.Message](
	method string,
	newReq func() Req,
	call func(Server, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Server), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }

// ServiceDesc is the grpc.ServiceDesc for the Afterlog service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodSignUp, newStruct, Server.SignUp),
		unary(MethodSignIn, newStruct, Server.SignIn),
		unary(MethodRefresh, newStruct, Server.Refresh),
		unary(MethodSignOut, newStruct, Server.SignOut),
		unary(MethodPing, newEmpty, Server.Ping),
		unary(MethodInsert, newStruct, Server.Insert),
		unary(MethodUpdate, newStruct, Server.Update),
		unary(MethodDelete, newStruct, Server.Delete),
		unary(MethodQuery, newStruct, Server.Query),
		unary(MethodExport, newEmpty, Server.Export),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "afterlog/v1/afterlog.proto",
}

// Client is the client API of the Afterlog service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp proto.Message](ctx context.Context, cc grpc.ClientConnInterface, method string, in proto.Message, out Resp, opts ...grpc.CallOption) (Resp, error) {
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		var zero Resp
		return zero, err
	}
	return out, nil
}

func (c *Client) SignUp(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodSignUp, in, newStruct(), opts...)
}

func (c *Client) SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodSignIn, in, newStruct(), opts...)
}

func (c *Client) Refresh(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodRefresh, in, newStruct(), opts...)
}

func (c *Client) SignOut(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c.cc, MethodSignOut, in, newEmpty(), opts...)
}

func (c *Client) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c.cc, MethodPing, in, newEmpty(), opts...)
}

func (c *Client) Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodInsert, in, newStruct(), opts...)
}

func (c *Client) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodUpdate, in, newStruct(), opts...)
}

func (c *Client) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c.cc, MethodDelete, in, newEmpty(), opts...)
}

func (c *Client) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodQuery, in, newStruct(), opts...)
}

func (c *Client) Export(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodExport, in, newStruct(), opts...)
}
