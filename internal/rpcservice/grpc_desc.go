package rpcservice

import (
	"context"

	"google.golang.org/grpc"
)

// QuadStoreServiceName is the gRPC service name registered for the
// storage engine RPCs.
const QuadStoreServiceName = "quadstore.QuadStoreService"

// SparqlServiceName is the gRPC service name registered for the
// SPARQL evaluation RPCs.
const SparqlServiceName = "quadstore.SparqlService"

func unaryHandler[Req any, Resp any](fn func(*QuadStoreServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		s := srv.(*QuadStoreServer)
		if interceptor == nil {
			return fn(s, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: QuadStoreServiceName}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(s, ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

func sparqlUnaryHandler[Req any, Resp any](fn func(*SparqlServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		s := srv.(*SparqlServer)
		if interceptor == nil {
			return fn(s, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SparqlServiceName}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(s, ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// QuadStoreServiceDesc is the hand-written equivalent of what
// protoc-gen-go-grpc would otherwise generate for QuadStoreService.
var QuadStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: QuadStoreServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddNamespaces", Handler: unaryHandler((*QuadStoreServer).AddNamespaces)},
		{MethodName: "GetNamespace", Handler: unaryHandler((*QuadStoreServer).GetNamespace)},
		{MethodName: "RemoveStatements", Handler: unaryHandler((*QuadStoreServer).RemoveStatements)},
		{MethodName: "Clear", Handler: unaryHandler((*QuadStoreServer).Clear)},
		{MethodName: "Size", Handler: unaryHandler((*QuadStoreServer).Size)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "GetNamespaces",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(GetNamespacesRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*QuadStoreServer).GetNamespaces(req, stream)
			},
			ServerStreams: true,
		},
		{
			StreamName: "AddStatements",
			Handler: func(srv any, stream grpc.ServerStream) error {
				return srv.(*QuadStoreServer).AddStatements(stream)
			},
			ClientStreams: true,
		},
		{
			StreamName: "Update",
			Handler: func(srv any, stream grpc.ServerStream) error {
				return srv.(*QuadStoreServer).Update(stream)
			},
			ClientStreams: true,
		},
		{
			StreamName: "GetStatements",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(GetStatementsRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*QuadStoreServer).GetStatements(req, stream)
			},
			ServerStreams: true,
		},
		{
			StreamName: "GetContexts",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(GetContextsRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*QuadStoreServer).GetContexts(req, stream)
			},
			ServerStreams: true,
		},
	},
	Metadata: "quadstore.proto",
}

// SparqlServiceDesc is the hand-written equivalent of what
// protoc-gen-go-grpc would otherwise generate for SparqlService.
var SparqlServiceDesc = grpc.ServiceDesc{
	ServiceName: SparqlServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AskQuery", Handler: sparqlUnaryHandler((*SparqlServer).AskQuery)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "TupleQuery",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(SparqlRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*SparqlServer).TupleQuery(req, stream)
			},
			ServerStreams: true,
		},
		{
			StreamName: "GraphQuery",
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(SparqlRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(*SparqlServer).GraphQuery(req, stream)
			},
			ServerStreams: true,
		},
	},
	Metadata: "quadstore.proto",
}

// RegisterQuadStoreServer registers a QuadStoreServer on s.
func RegisterQuadStoreServer(s grpc.ServiceRegistrar, srv *QuadStoreServer) {
	s.RegisterService(&QuadStoreServiceDesc, srv)
}

// RegisterSparqlServer registers a SparqlServer on s.
func RegisterSparqlServer(s grpc.ServiceRegistrar, srv *SparqlServer) {
	s.RegisterService(&SparqlServiceDesc, srv)
}
