package shardingproxy

import (
	"context"

	"google.golang.org/grpc"

	"github.com/triplewire/quadstore/internal/rpcservice"
)

func proxyUnary[Req any, Resp any](fn func(*Proxy, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		p := srv.(*Proxy)
		if interceptor == nil {
			return fn(p, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rpcservice.QuadStoreServiceName}
		return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
			return fn(p, ctx, req.(*Req))
		})
	}
}

// ServiceDesc registers a Proxy under the same method table as
// rpcservice.QuadStoreServiceDesc, letting a Proxy stand in wherever
// a single engine's QuadStoreServer would otherwise be registered.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: rpcservice.QuadStoreServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddNamespaces", Handler: proxyUnary((*Proxy).AddNamespaces)},
		{MethodName: "GetNamespace", Handler: proxyUnary((*Proxy).GetNamespace)},
		{MethodName: "RemoveStatements", Handler: proxyUnary((*Proxy).RemoveStatements)},
		{MethodName: "Clear", Handler: proxyUnary((*Proxy).Clear)},
		{MethodName: "Size", Handler: proxyUnary((*Proxy).Size)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "GetNamespaces",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(rpcservice.GetNamespacesRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*Proxy).GetNamespaces(stream.Context(), req, func(resp *rpcservice.GetNamespacesResponse) error {
					return stream.SendMsg(resp)
				})
			},
			ServerStreams: true,
		},
		{
			StreamName: "AddStatements",
			Handler: func(srv any, stream grpc.ServerStream) error {
				recv := func() (*rpcservice.AddStatementsRequest, error) {
					req := new(rpcservice.AddStatementsRequest)
					if err := stream.RecvMsg(req); err != nil {
						return nil, err
					}
					return req, nil
				}
				resp, err := srv.(*Proxy).AddStatements(stream.Context(), recv)
				if err != nil {
					return err
				}
				return stream.SendMsg(resp)
			},
			ClientStreams: true,
		},
		{
			StreamName: "Update",
			Handler: func(srv any, stream grpc.ServerStream) error {
				recv := func() (*rpcservice.UpdateRequest, error) {
					req := new(rpcservice.UpdateRequest)
					if err := stream.RecvMsg(req); err != nil {
						return nil, err
					}
					return req, nil
				}
				resp, err := srv.(*Proxy).Update(stream.Context(), recv)
				if err != nil {
					return err
				}
				return stream.SendMsg(resp)
			},
			ClientStreams: true,
		},
		{
			StreamName: "GetStatements",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(rpcservice.GetStatementsRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*Proxy).GetStatements(stream.Context(), req, func(resp *rpcservice.GetStatementsResponse) error {
					return stream.SendMsg(resp)
				})
			},
			ServerStreams: true,
		},
		{
			StreamName: "GetContexts",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(rpcservice.GetContextsRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*Proxy).GetContexts(stream.Context(), req, func(resp *rpcservice.GetContextsResponse) error {
					return stream.SendMsg(resp)
				})
			},
			ServerStreams: true,
		},
	},
	Metadata: "quadstore.proto",
}

// SparqlServiceDesc registers a SparqlProxy that rejects every call
// with codes.Unimplemented, under the same method table as
// rpcservice.SparqlServiceDesc.
var SparqlServiceDesc = grpc.ServiceDesc{
	ServiceName: rpcservice.SparqlServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AskQuery",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(rpcservice.SparqlRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				return srv.(SparqlProxy).AskQuery(ctx, req)
			},
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "TupleQuery",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(rpcservice.SparqlRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(SparqlProxy).TupleQuery(req, func(resp *rpcservice.TupleQueryResponse) error {
					return stream.SendMsg(resp)
				})
			},
			ServerStreams: true,
		},
		{
			StreamName: "GraphQuery",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(rpcservice.SparqlRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(SparqlProxy).GraphQuery(req, func(resp *rpcservice.GraphQueryResponse) error {
					return stream.SendMsg(resp)
				})
			},
			ServerStreams: true,
		},
	},
	Metadata: "quadstore.proto",
}

// Register registers p and a rejecting SparqlProxy on s.
func Register(s grpc.ServiceRegistrar, p *Proxy) {
	s.RegisterService(&ServiceDesc, p)
	s.RegisterService(&SparqlServiceDesc, SparqlProxy{})
}
