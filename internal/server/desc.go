package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "payables.v1.PayablesService"

// PayablesServer is the server API of payables.v1.PayablesService. Messages
// are protobuf well-known types; structured payloads travel as Struct with
// the same keys as the JSON form of the Go types.
type PayablesServer interface {
	ProcessInvoice(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	ReconcileAndPersist(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCategories(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error)
	CreateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetLifecycle(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ExportPayables(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	ListPayables(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddClassifications(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reschedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkInstallmentPaid(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

var _ PayablesServer = (*PayablesService)(nil)

func unary[Req, Resp proto.Message](method string, newReq func() Req, call func(PayablesServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PayablesServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(PayablesServer), ctx, req.(Req))
			})
		},
	}
}

func newStruct() *structpb.Struct      { return &structpb.Struct{} }
func newBytes() *wrapperspb.BytesValue { return &wrapperspb.BytesValue{} }
func newBool() *wrapperspb.BoolValue   { return &wrapperspb.BoolValue{} }

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PayablesServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ProcessInvoice", newBytes, PayablesServer.ProcessInvoice),
		unary("ReconcileAndPersist", newStruct, PayablesServer.ReconcileAndPersist),
		unary("ListCategories", newBool, PayablesServer.ListCategories),
		unary("CreateCategory", newStruct, PayablesServer.CreateCategory),
		unary("SetLifecycle", newStruct, PayablesServer.SetLifecycle),
		unary("ExportPayables", newStruct, PayablesServer.ExportPayables),
		unary("ListPayables", newStruct, PayablesServer.ListPayables),
		unary("AddClassifications", newStruct, PayablesServer.AddClassifications),
		unary("Reschedule", newStruct, PayablesServer.Reschedule),
		unary("MarkInstallmentPaid", newStruct, PayablesServer.MarkInstallmentPaid),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payables/v1/payables.proto",
}

// RegisterPayablesServer registers srv on s.
func RegisterPayablesServer(s grpc.ServiceRegistrar, srv PayablesServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Client calls payables.v1.PayablesService over conn.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func invoke[Resp proto.Message](ctx context.Context, c *Client, method string, in proto.Message, out Resp, opts ...grpc.CallOption) (Resp, error) {
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		var zero Resp
		return zero, err
	}
	return out, nil
}

func (c *Client) ProcessInvoice(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c, "ProcessInvoice", in, newStruct(), opts...)
}

func (c *Client) ReconcileAndPersist(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c, "ReconcileAndPersist", in, newStruct(), opts...)
}

func (c *Client) ListCategories(ctx context.Context, in *wrapperspb.BoolValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c, "ListCategories", in, newStruct(), opts...)
}

func (c *Client) CreateCategory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c, "CreateCategory", in, newStruct(), opts...)
}

func (c *Client) SetLifecycle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c, "SetLifecycle", in, &emptypb.Empty{}, opts...)
}

func (c *Client) ExportPayables(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke(ctx, c, "ExportPayables", in, newBytes(), opts...)
}

func (c *Client) ListPayables(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c, "ListPayables", in, newStruct(), opts...)
}

func (c *Client) AddClassifications(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c, "AddClassifications", in, newStruct(), opts...)
}

func (c *Client) Reschedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c, "Reschedule", in, newStruct(), opts...)
}

func (c *Client) MarkInstallmentPaid(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c, "MarkInstallmentPaid", in, &emptypb.Empty{}, opts...)
}
