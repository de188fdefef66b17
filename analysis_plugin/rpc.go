package analysis_plugin

import (
	"context"
	"net/rpc"

	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/request"
)

type SubmitArgs struct {
	Request *request.ProcessingRequest
}

type GetTasksArgs struct {
	Coords analysis_client.JobCoordinates
}

// RPCServer is the net/rpc server that RPCClient talks to
type RPCServer struct {
	Impl analysis_client.Client
}

func (s *RPCServer) NewRequestID(_ interface{}, resp *string) error {
	*resp = s.Impl.NewRequestID()
	return nil
}

// the calling context does not cross the process boundary; the client abandons the call instead
func (s *RPCServer) Submit(args SubmitArgs, resp *analysis_client.JobCoordinates) error {
	coords, err := s.Impl.Submit(context.Background(), args.Request)
	if err != nil {
		return err
	}
	*resp = coords
	return nil
}

func (s *RPCServer) GetTasks(args GetTasksArgs, resp *[]analysis_client.TaskRecord) error {
	tasks, err := s.Impl.GetTasks(context.Background(), args.Coords)
	if err != nil {
		return err
	}
	*resp = tasks
	return nil
}

// RPCClient is an analysis_client.Client that talks to a plugin over net/rpc
type RPCClient struct {
	client *rpc.Client
}

func NewRPCClient(client *rpc.Client) *RPCClient {
	return &RPCClient{client: client}
}

func (c *RPCClient) NewRequestID() string {
	var resp string
	if err := c.client.Call("Plugin.NewRequestID", new(interface{}), &resp); err != nil {
		// request ids are opaque; the submit call will surface the broken connection
		return ""
	}
	return resp
}

func (c *RPCClient) Submit(ctx context.Context, req *request.ProcessingRequest) (analysis_client.JobCoordinates, error) {
	var resp analysis_client.JobCoordinates
	if err := c.call(ctx, "Plugin.Submit", SubmitArgs{Request: req}, &resp); err != nil {
		return analysis_client.JobCoordinates{}, err
	}
	return resp, nil
}

func (c *RPCClient) GetTasks(ctx context.Context, coords analysis_client.JobCoordinates) ([]analysis_client.TaskRecord, error) {
	var resp []analysis_client.TaskRecord
	if err := c.call(ctx, "Plugin.GetTasks", GetTasksArgs{Coords: coords}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *RPCClient) call(ctx context.Context, method string, args, reply interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	call := c.client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-call.Done:
		return res.Error
	}
}
