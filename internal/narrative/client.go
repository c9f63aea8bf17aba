package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
)

// #region service
const (
	// ServiceName is the gRPC service the narrative collaborator exposes.
	ServiceName = "narrative.v1.NarrativeService"
	// ComposeMethod is the full method name of the Compose RPC.
	ComposeMethod = "/" + ServiceName + "/Compose"
)

// Service is the narrative RPC surface. Requests and responses are free-form
// structs so the collaborator can evolve its fields without a shared schema.
type Service interface {
	Compose(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type serviceClient struct {
	cc grpc.ClientConnInterface
}

// NewServiceClient returns a Service that invokes Compose over cc.
func NewServiceClient(cc grpc.ClientConnInterface) Service {
	return &serviceClient{cc: cc}
}

func (s *serviceClient) Compose(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := s.cc.Invoke(ctx, ComposeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service

// #region types
// Beat is one piece of narrative content returned for a session summary.
type Beat struct {
	Text             string
	SuggestedMode    mode.Mode // zero when the collaborator has no preference
	InstabilityDelta float64
}

// #endregion types

// #region client-struct
// Client wraps the gRPC connection to the narrative collaborator.
type Client struct {
	conn   *grpc.ClientConn
	svc    Service
	health healthpb.HealthClient
}

// #endregion client-struct

// #region constructor
// NewClient connects to the narrative gRPC server.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		svc:    NewServiceClient(conn),
		health: healthpb.NewHealthClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service
// implementation. Ready always reports true.
func NewClientWithService(svc Service) *Client {
	return &Client{svc: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region ready
// Ready probes the standard health service for the narrative service.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	if c.health == nil {
		return true, nil
	}
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, fmt.Errorf("health rpc: %w", err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// #endregion ready

// #region compose
// Compose sends the session summary and decodes the returned beat.
func (c *Client) Compose(ctx context.Context, summary session.Summary) (Beat, error) {
	req, err := SummaryStruct(summary)
	if err != nil {
		return Beat{}, err
	}
	resp, err := c.svc.Compose(ctx, req)
	if err != nil {
		return Beat{}, fmt.Errorf("compose rpc: %w", err)
	}
	return decodeBeat(resp)
}

// SummaryStruct converts a summary to its wire form, using the summary's
// JSON field names.
func SummaryStruct(summary session.Summary) (*structpb.Struct, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("summary struct: %w", err)
	}
	return s, nil
}

func decodeBeat(resp *structpb.Struct) (Beat, error) {
	fields := resp.GetFields()
	b := Beat{
		Text:             fields["text"].GetStringValue(),
		InstabilityDelta: fields["instability_delta"].GetNumberValue(),
	}
	if name := fields["suggested_mode"].GetStringValue(); name != "" {
		m, err := mode.Parse(name)
		if err != nil {
			return Beat{}, fmt.Errorf("decode beat: %w", err)
		}
		b.SuggestedMode = m
	}
	return b, nil
}

// #endregion compose
