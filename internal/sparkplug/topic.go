package sparkplug

import (
	"strings"

	"codeberg.org/mutker/vcmclient/internal/errors"
)

// Namespace is the topic prefix for Sparkplug-B messages.
const Namespace = "spBv1.0"

// MessageType is the verb segment of a Sparkplug topic.
type MessageType string

const (
	NodeBirth     MessageType = "NBIRTH"
	NodeDeath     MessageType = "NDEATH"
	NodeData      MessageType = "NDATA"
	NodeCommand   MessageType = "NCMD"
	DeviceBirth   MessageType = "DBIRTH"
	DeviceDeath   MessageType = "DDEATH"
	DeviceData    MessageType = "DDATA"
	DeviceCommand MessageType = "DCMD"
)

// IsDevice reports whether the message type addresses a device below a node.
func (m MessageType) IsDevice() bool {
	switch m {
	case DeviceBirth, DeviceDeath, DeviceData, DeviceCommand:
		return true
	default:
		return false
	}
}

// IsValid reports whether m is one of the eight Sparkplug message types.
func (m MessageType) IsValid() bool {
	switch m {
	case NodeBirth, NodeDeath, NodeData, NodeCommand,
		DeviceBirth, DeviceDeath, DeviceData, DeviceCommand:
		return true
	default:
		return false
	}
}

// Topic is a parsed Sparkplug topic. Device is empty for node messages.
type Topic struct {
	Group  string
	Type   MessageType
	Node   string
	Device string
}

func (t Topic) String() string {
	s := Namespace + "/" + t.Group + "/" + string(t.Type) + "/" + t.Node
	if t.Device != "" {
		s += "/" + t.Device
	}
	return s
}

// ParseTopic splits a Sparkplug topic into its parts.
func ParseTopic(s string) (Topic, error) {
	errFactory := errors.New()

	parts := strings.Split(s, "/")
	if len(parts) < 4 || len(parts) > 5 || parts[0] != Namespace {
		return Topic{}, errFactory.WithData(ErrInvalidTopic, s)
	}

	t := Topic{
		Group: parts[1],
		Type:  MessageType(parts[2]),
		Node:  parts[3],
	}
	if !t.Type.IsValid() || t.Group == "" || t.Node == "" {
		return Topic{}, errFactory.WithData(ErrInvalidTopic, s)
	}

	if len(parts) == 5 {
		t.Device = parts[4]
		if t.Device == "" || !t.Type.IsDevice() {
			return Topic{}, errFactory.WithData(ErrInvalidTopic, s)
		}
	} else if t.Type.IsDevice() {
		return Topic{}, errFactory.WithData(ErrInvalidTopic, s)
	}

	return t, nil
}

// NodeFilters returns the subscription filters covering every node and
// device message of one node.
func NodeFilters(group, node string) []string {
	base := Namespace + "/" + group + "/+/" + node
	return []string{base, base + "/+"}
}

// StateTopic is the host application state topic nodes watch to decide
// whether a primary host is online.
func StateTopic(hostID string) string {
	return "STATE/" + hostID
}

// Host state payloads published on StateTopic.
const (
	StateOnline  = "ONLINE"
	StateOffline = "OFFLINE"
)
