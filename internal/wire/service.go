// Package wire describes the Keepsake gRPC service and converts between
// models and the protobuf well-known types carried on the wire. Messages are
// structpb/wrapperspb/emptypb values, so no generated code is needed.
package wire

import "google.golang.org/grpc"

const ServiceName = "keepsake.v1.Keepsake"

const (
	MethodPing             = "Ping"
	MethodEnsureIdentity   = "EnsureIdentity"
	MethodResolveInvite    = "ResolveInvite"
	MethodAppendEntry      = "AppendEntry"
	MethodUpdateProfile    = "UpdateProfile"
	MethodExportArchive    = "ExportArchive"
	MethodSubscribeEntries = "SubscribeEntries"
)

// FullMethod returns the "/service/method" path gRPC routes on.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SubscribeStreamDesc describes the server-streaming live feed for clients.
var SubscribeStreamDesc = grpc.StreamDesc{
	StreamName:    MethodSubscribeEntries,
	ServerStreams: true,
}
