package rpcservice

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

func fullMethod(service, method string) string {
	return fmt.Sprintf("/%s/%s", service, method)
}

// DialOptions returns the grpc.DialOption set every client of this
// package's services must use, selecting the gob codec negotiated in
// place of protobuf.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
}

// QuadStoreClient is the hand-written client stub matching
// QuadStoreServiceDesc.
type QuadStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewQuadStoreClient(cc grpc.ClientConnInterface) *QuadStoreClient {
	return &QuadStoreClient{cc: cc}
}

func (c *QuadStoreClient) AddNamespaces(ctx context.Context, req *AddNamespacesRequest, opts ...grpc.CallOption) (*AddNamespacesResponse, error) {
	resp := new(AddNamespacesResponse)
	if err := c.cc.Invoke(ctx, fullMethod(QuadStoreServiceName, "AddNamespaces"), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) GetNamespace(ctx context.Context, req *GetNamespaceRequest, opts ...grpc.CallOption) (*GetNamespaceResponse, error) {
	resp := new(GetNamespaceResponse)
	if err := c.cc.Invoke(ctx, fullMethod(QuadStoreServiceName, "GetNamespace"), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) RemoveStatements(ctx context.Context, req *RemoveStatementsRequest, opts ...grpc.CallOption) (*RemoveStatementsResponse, error) {
	resp := new(RemoveStatementsResponse)
	if err := c.cc.Invoke(ctx, fullMethod(QuadStoreServiceName, "RemoveStatements"), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) Clear(ctx context.Context, req *ClearRequest, opts ...grpc.CallOption) (*ClearResponse, error) {
	resp := new(ClearResponse)
	if err := c.cc.Invoke(ctx, fullMethod(QuadStoreServiceName, "Clear"), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) Size(ctx context.Context, req *SizeRequest, opts ...grpc.CallOption) (*SizeResponse, error) {
	resp := new(SizeResponse)
	if err := c.cc.Invoke(ctx, fullMethod(QuadStoreServiceName, "Size"), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

// NamespaceStream is returned by GetNamespaces.
type NamespaceStream struct {
	grpc.ClientStream
}

func (s *NamespaceStream) Recv() (*GetNamespacesResponse, error) {
	resp := new(GetNamespacesResponse)
	if err := s.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) GetNamespaces(ctx context.Context, req *GetNamespacesRequest, opts ...grpc.CallOption) (*NamespaceStream, error) {
	desc := &QuadStoreServiceDesc.Streams[0]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod(QuadStoreServiceName, "GetNamespaces"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &NamespaceStream{ClientStream: stream}, nil
}

// AddStatementsStream is the client-streaming handle returned by
// AddStatements: callers send zero or more batches, then call
// CloseAndRecv.
type AddStatementsStream struct {
	grpc.ClientStream
}

func (s *AddStatementsStream) Send(req *AddStatementsRequest) error {
	return s.SendMsg(req)
}

func (s *AddStatementsStream) CloseAndRecv() (*AddStatementsResponse, error) {
	if err := s.CloseSend(); err != nil {
		return nil, err
	}
	resp := new(AddStatementsResponse)
	if err := s.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) AddStatements(ctx context.Context, opts ...grpc.CallOption) (*AddStatementsStream, error) {
	desc := &QuadStoreServiceDesc.Streams[1]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod(QuadStoreServiceName, "AddStatements"), opts...)
	if err != nil {
		return nil, err
	}
	return &AddStatementsStream{ClientStream: stream}, nil
}

// UpdateStream is the client-streaming handle returned by Update:
// callers send a sequence of tagged ops, then call CloseAndRecv to
// get the per-kind counts once the server has applied all of them.
type UpdateStream struct {
	grpc.ClientStream
}

func (s *UpdateStream) Send(req *UpdateRequest) error {
	return s.SendMsg(req)
}

func (s *UpdateStream) CloseAndRecv() (*UpdateResponse, error) {
	if err := s.CloseSend(); err != nil {
		return nil, err
	}
	resp := new(UpdateResponse)
	if err := s.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) Update(ctx context.Context, opts ...grpc.CallOption) (*UpdateStream, error) {
	desc := &QuadStoreServiceDesc.Streams[2]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod(QuadStoreServiceName, "Update"), opts...)
	if err != nil {
		return nil, err
	}
	return &UpdateStream{ClientStream: stream}, nil
}

// StatementStream is returned by GetStatements.
type StatementStream struct {
	grpc.ClientStream
}

func (s *StatementStream) Recv() (*GetStatementsResponse, error) {
	resp := new(GetStatementsResponse)
	if err := s.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) GetStatements(ctx context.Context, req *GetStatementsRequest, opts ...grpc.CallOption) (*StatementStream, error) {
	desc := &QuadStoreServiceDesc.Streams[3]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod(QuadStoreServiceName, "GetStatements"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &StatementStream{ClientStream: stream}, nil
}

// ContextStream is returned by GetContexts.
type ContextStream struct {
	grpc.ClientStream
}

func (s *ContextStream) Recv() (*GetContextsResponse, error) {
	resp := new(GetContextsResponse)
	if err := s.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *QuadStoreClient) GetContexts(ctx context.Context, req *GetContextsRequest, opts ...grpc.CallOption) (*ContextStream, error) {
	desc := &QuadStoreServiceDesc.Streams[4]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod(QuadStoreServiceName, "GetContexts"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &ContextStream{ClientStream: stream}, nil
}

// SparqlClient is the hand-written client stub matching
// SparqlServiceDesc.
type SparqlClient struct {
	cc grpc.ClientConnInterface
}

func NewSparqlClient(cc grpc.ClientConnInterface) *SparqlClient {
	return &SparqlClient{cc: cc}
}

func (c *SparqlClient) AskQuery(ctx context.Context, req *SparqlRequest, opts ...grpc.CallOption) (*AskQueryResponse, error) {
	resp := new(AskQueryResponse)
	if err := c.cc.Invoke(ctx, fullMethod(SparqlServiceName, "AskQuery"), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

// TupleQueryStream is returned by TupleQuery.
type TupleQueryStream struct {
	grpc.ClientStream
}

func (s *TupleQueryStream) Recv() (*TupleQueryResponse, error) {
	resp := new(TupleQueryResponse)
	if err := s.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *SparqlClient) TupleQuery(ctx context.Context, req *SparqlRequest, opts ...grpc.CallOption) (*TupleQueryStream, error) {
	desc := &SparqlServiceDesc.Streams[0]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod(SparqlServiceName, "TupleQuery"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &TupleQueryStream{ClientStream: stream}, nil
}

// GraphQueryStream is returned by GraphQuery.
type GraphQueryStream struct {
	grpc.ClientStream
}

func (s *GraphQueryStream) Recv() (*GraphQueryResponse, error) {
	resp := new(GraphQueryResponse)
	if err := s.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *SparqlClient) GraphQuery(ctx context.Context, req *SparqlRequest, opts ...grpc.CallOption) (*GraphQueryStream, error) {
	desc := &SparqlServiceDesc.Streams[1]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod(SparqlServiceName, "GraphQuery"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &GraphQueryStream{ClientStream: stream}, nil
}
