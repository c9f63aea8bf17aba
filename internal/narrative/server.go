package narrative

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Composer is implemented by narrative collaborators served in-process.
type Composer interface {
	Compose(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the narrative service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Composer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compose", Handler: composeHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterComposer registers c on s under ServiceName.
func RegisterComposer(s grpc.ServiceRegistrar, c Composer) {
	s.RegisterService(&ServiceDesc, c)
}

func composeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Composer).Compose(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ComposeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Composer).Compose(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
