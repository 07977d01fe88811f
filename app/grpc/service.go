package grpc

import (
	"context"
	"encoding/json"

	"github.com/vibast-solutions/ms-go-cardgateway/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const GatewayServiceName = "cardgateway.v1.GatewayService"

// GatewayServiceServer is served over structpb.Struct messages carrying the JSON shape of the types package.
type GatewayServiceServer interface {
	Health(context.Context, *types.HealthRequest) (*types.HealthResponse, error)
	InitiatePayment(context.Context, *types.InitiatePaymentRequest) (*types.CheckoutResponse, error)
	ConfirmPayment(context.Context, *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error)
	GetOrder(context.Context, *types.GetOrderRequest) (*types.OrderDetailsResponse, error)
	Capture(context.Context, *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error)
	Void(context.Context, *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error)
	Refund(context.Context, *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error)
	ListPaymentSolutions(context.Context, *types.ListPaymentSolutionsRequest) (*types.PaymentSolutionsResponse, error)
}

func RegisterGatewayServiceServer(s grpc.ServiceRegistrar, srv GatewayServiceServer) {
	s.RegisterService(&gatewayServiceDesc, srv)
}

var gatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: GatewayServiceName,
	HandlerType: (*GatewayServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Health", GatewayServiceServer.Health),
		unaryMethod("InitiatePayment", GatewayServiceServer.InitiatePayment),
		unaryMethod("ConfirmPayment", GatewayServiceServer.ConfirmPayment),
		unaryMethod("GetOrder", GatewayServiceServer.GetOrder),
		unaryMethod("Capture", GatewayServiceServer.Capture),
		unaryMethod("Void", GatewayServiceServer.Void),
		unaryMethod("Refund", GatewayServiceServer.Refund),
		unaryMethod("ListPaymentSolutions", GatewayServiceServer.ListPaymentSolutions),
	},
	Streams: []grpc.StreamDesc{},
}

func unaryMethod[Req any, Resp any](
	name string,
	call func(GatewayServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			req := new(Req)
			if err := decodeStruct(in, req); err != nil {
				return nil, status.Error(codes.InvalidArgument, "invalid request payload")
			}

			handler := func(ctx context.Context, r interface{}) (interface{}, error) {
				resp, err := call(srv.(GatewayServiceServer), ctx, r.(*Req))
				if err != nil {
					return nil, err
				}
				out, err := encodeStruct(resp)
				if err != nil {
					return nil, status.Error(codes.Internal, "internal server error")
				}
				return out, nil
			}
			if interceptor == nil {
				return handler(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + GatewayServiceName + "/" + name}
			return interceptor(ctx, req, info, handler)
		},
	}
}

// Invoke calls a GatewayService method on cc, converting req and resp through structpb.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, req, resp interface{}, opts ...grpc.CallOption) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, "/"+GatewayServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	return decodeStruct(out, resp)
}

func encodeStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeStruct(in *structpb.Struct, v interface{}) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
