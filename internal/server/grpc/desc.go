package grpc

import (
	"context"

	"github.com/dmitrijs2005/keepsake/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// keepsakeServer is the handler set registered under wire.ServiceName.
type keepsakeServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	EnsureIdentity(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ResolveInvite(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	AppendEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportArchive(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SubscribeEntries(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.ListValue]) error
}

// unary builds the method descriptor for one request/response call.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Res proto.Message](method string, call func(keepsakeServer, context.Context, PReq) (Res, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(keepsakeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: wire.FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(keepsakeServer), ctx, req.(PReq))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func subscribeEntriesHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(keepsakeServer).SubscribeEntries(in, &grpc.GenericServerStream[wrapperspb.StringValue, structpb.ListValue]{ServerStream: stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*keepsakeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(wire.MethodPing, keepsakeServer.Ping),
		unary(wire.MethodEnsureIdentity, keepsakeServer.EnsureIdentity),
		unary(wire.MethodResolveInvite, keepsakeServer.ResolveInvite),
		unary(wire.MethodAppendEntry, keepsakeServer.AppendEntry),
		unary(wire.MethodUpdateProfile, keepsakeServer.UpdateProfile),
		unary(wire.MethodExportArchive, keepsakeServer.ExportArchive),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    wire.MethodSubscribeEntries,
			Handler:       subscribeEntriesHandler,
			ServerStreams: true,
		},
	},
}
