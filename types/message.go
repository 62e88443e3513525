package types

import (
	"encoding/json"
	"fmt"
)

// MessageKind discriminates wire messages. Every message travels as a flat
// JSON object with a "type" field alongside the payload fields.
type MessageKind string

const (
	KindHello                    MessageKind = "HELLO"
	KindResources                MessageKind = "RESOURCES"
	KindPing                     MessageKind = "PING"
	KindPong                     MessageKind = "PONG"
	KindWorkloadRequest          MessageKind = "WORKLOAD_REQUEST"
	KindWorkloadResponse         MessageKind = "WORKLOAD_RESPONSE"
	KindFederationCreated        MessageKind = "FEDERATION_CREATED"
	KindFederationJoin           MessageKind = "FEDERATION_JOIN"
	KindFederationLeave          MessageKind = "FEDERATION_LEAVE"
	KindFederationResourceUpdate MessageKind = "FEDERATION_RESOURCE_UPDATE"
)

// Message is the closed set of peer wire messages. Each kind has exactly one
// concrete type, so dispatch can match exhaustively instead of falling
// through on an unknown string tag.
type Message interface {
	Kind() MessageKind
	// Sender returns the node id the message claims to originate from.
	Sender() string
}

// Hello opens the handshake: each endpoint announces itself when a
// connection opens.
type Hello struct {
	NodeID   string   `json:"nodeId"`
	NodeType NodeType `json:"nodeType"`
	Version  string   `json:"version"`
}

// Resources carries a node's current resource self-report. Sent as the
// handshake reply to HELLO and pushed periodically by the liveness monitor.
type Resources struct {
	NodeID    string           `json:"nodeId"`
	Resources ResourceSnapshot `json:"resources"`
}

// Ping is a liveness probe. Timestamp is unix milliseconds.
type Ping struct {
	NodeID    string `json:"nodeId"`
	Timestamp int64  `json:"timestamp"`
}

// Pong answers a Ping, echoing its timestamp.
type Pong struct {
	NodeID    string `json:"nodeId"`
	Timestamp int64  `json:"timestamp"`
}

// WorkloadRequest announces a locally submitted workload to peers.
type WorkloadRequest struct {
	NodeID   string   `json:"nodeId"`
	Workload Workload `json:"workload"`
}

// WorkloadResponse acknowledges a WorkloadRequest.
type WorkloadResponse struct {
	NodeID     string `json:"nodeId"`
	WorkloadID string `json:"workloadId"`
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
}

// FederationCreated replicates a newly created federation to peers.
type FederationCreated struct {
	NodeID     string     `json:"nodeId"`
	Federation Federation `json:"federation"`
}

// FederationJoin replicates a membership addition. The joining node is the
// sender, not the local node.
type FederationJoin struct {
	NodeID       string `json:"nodeId"`
	FederationID string `json:"federationId"`
}

// FederationLeave replicates a membership removal.
type FederationLeave struct {
	NodeID       string `json:"nodeId"`
	FederationID string `json:"federationId"`
}

// FederationResourceUpdate replicates a resource policy change. The receiver
// overwrites its local policy unconditionally (last writer wins).
type FederationResourceUpdate struct {
	NodeID         string         `json:"nodeId"`
	FederationID   string         `json:"federationId"`
	ResourcePolicy ResourcePolicy `json:"resourcePolicy"`
}

func (Hello) Kind() MessageKind                    { return KindHello }
func (Resources) Kind() MessageKind                { return KindResources }
func (Ping) Kind() MessageKind                     { return KindPing }
func (Pong) Kind() MessageKind                     { return KindPong }
func (WorkloadRequest) Kind() MessageKind          { return KindWorkloadRequest }
func (WorkloadResponse) Kind() MessageKind         { return KindWorkloadResponse }
func (FederationCreated) Kind() MessageKind        { return KindFederationCreated }
func (FederationJoin) Kind() MessageKind           { return KindFederationJoin }
func (FederationLeave) Kind() MessageKind          { return KindFederationLeave }
func (FederationResourceUpdate) Kind() MessageKind { return KindFederationResourceUpdate }

func (m Hello) Sender() string                    { return m.NodeID }
func (m Resources) Sender() string                { return m.NodeID }
func (m Ping) Sender() string                     { return m.NodeID }
func (m Pong) Sender() string                     { return m.NodeID }
func (m WorkloadRequest) Sender() string          { return m.NodeID }
func (m WorkloadResponse) Sender() string         { return m.NodeID }
func (m FederationCreated) Sender() string        { return m.NodeID }
func (m FederationJoin) Sender() string           { return m.NodeID }
func (m FederationLeave) Sender() string          { return m.NodeID }
func (m FederationResourceUpdate) Sender() string { return m.NodeID }

// EncodeMessage serializes m as a flat JSON object with the "type"
// discriminator spliced in next to the payload fields.
func EncodeMessage(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, NewError(ErrInternal, "encode message").WithCause(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, NewError(ErrInternal, "encode message").WithCause(err)
	}
	kind, _ := json.Marshal(m.Kind())
	fields["type"] = kind
	return json.Marshal(fields)
}

// DecodeMessage parses a wire frame into its concrete message type. A
// missing or unknown "type" and malformed payloads yield a VALIDATION error;
// callers log and drop such frames rather than failing the connection.
func DecodeMessage(data []byte) (Message, error) {
	var envelope struct {
		Type MessageKind `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, NewError(ErrValidation, "malformed message frame").WithCause(err)
	}

	var msg Message
	switch envelope.Type {
	case KindHello:
		msg = &Hello{}
	case KindResources:
		msg = &Resources{}
	case KindPing:
		msg = &Ping{}
	case KindPong:
		msg = &Pong{}
	case KindWorkloadRequest:
		msg = &WorkloadRequest{}
	case KindWorkloadResponse:
		msg = &WorkloadResponse{}
	case KindFederationCreated:
		msg = &FederationCreated{}
	case KindFederationJoin:
		msg = &FederationJoin{}
	case KindFederationLeave:
		msg = &FederationLeave{}
	case KindFederationResourceUpdate:
		msg = &FederationResourceUpdate{}
	default:
		return nil, NewError(ErrValidation, fmt.Sprintf("unknown message type %q", envelope.Type))
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, NewError(ErrValidation, fmt.Sprintf("malformed %s payload", envelope.Type)).WithCause(err)
	}
	return msg, nil
}
