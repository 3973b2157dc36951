package invoke

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dialscript/dial/internal/value"
)

// gatewayProto is the wire contract of a dial gateway: a single Invoke
// rpc that forwards an opaque payload to a target method and relays the
// reply. Parsed at dial time so no generated code is checked in.
const gatewayProto = `
syntax = "proto3";
package dial;

service Gateway {
  rpc Invoke(InvokeRequest) returns (InvokeResponse);
}

message InvokeRequest {
  string request_id = 1;
  string target = 2;
  string method = 3;
  bytes payload = 4;
}

message InvokeResponse {
  bytes payload = 1;
  string error = 2;
}
`

const gatewayMethod = "/dial.Gateway/Invoke"

// GRPC is an Invoker that forwards calls through a dial gateway service.
type GRPC struct {
	conn *grpc.ClientConn
	in   *desc.MessageDescriptor
	out  *desc.MessageDescriptor
}

// DialGateway connects to a gateway endpoint. The connection is lazy;
// transport failures surface on the first Invoke.
func DialGateway(endpoint string) (*GRPC, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"dial/gateway.proto": gatewayProto,
		}),
	}
	fds, err := parser.ParseFiles("dial/gateway.proto")
	if err != nil {
		return nil, fmt.Errorf("parse gateway proto: %w", err)
	}
	fd := fds[0]
	in := fd.FindMessage("dial.InvokeRequest")
	out := fd.FindMessage("dial.InvokeResponse")
	if in == nil || out == nil {
		return nil, fmt.Errorf("gateway proto is missing message descriptors")
	}
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return &GRPC{conn: conn, in: in, out: out}, nil
}

func (g *GRPC) Invoke(ctx context.Context, target, method string, payload []byte) ([]byte, error) {
	req := dynamic.NewMessage(g.in)
	req.SetFieldByName("request_id", uuid.NewString())
	req.SetFieldByName("target", target)
	req.SetFieldByName("method", method)
	req.SetFieldByName("payload", payload)

	resp := dynamic.NewMessage(g.out)
	if err := g.conn.Invoke(ctx, gatewayMethod, req, resp); err != nil {
		return nil, value.Errorf(value.CallError, "%s.%s: %v", target, method, err)
	}
	if remote, ok := resp.GetFieldByName("error").(string); ok && remote != "" {
		return nil, value.Errorf(value.CallError, "%s.%s: %s", target, method, remote)
	}
	reply, _ := resp.GetFieldByName("payload").([]byte)
	return reply, nil
}

func (g *GRPC) Close() error { return g.conn.Close() }
