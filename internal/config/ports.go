package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/potx/potx/internal/errors"
)

const (
	minPort = 1
	maxPort = 65535
)

// PortList is the ordered list of ports the honeypot listens on. In YAML it
// may be written as a comma-separated string, a single integer, or a sequence.
type PortList []int

// ParsePorts parses a comma-separated port list such as "22, 80,8080".
func ParsePorts(s string) (PortList, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.ErrNoPorts
	}

	parts := strings.Split(s, ",")
	ports := make(PortList, 0, len(parts))
	for _, part := range parts {
		port, err := parsePort(part)
		if err != nil {
			return nil, err
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.WrapAs(errors.ErrInvalidPorts, err, fmt.Sprintf("invalid port %q", s))
	}
	if port < minPort || port > maxPort {
		return 0, errors.WrapAs(errors.ErrInvalidPorts,
			fmt.Errorf("must be between %d and %d", minPort, maxPort),
			fmt.Sprintf("port %d out of range", port))
	}
	return port, nil
}

// String renders the list in the comma-separated form ParsePorts accepts.
func (p PortList) String() string {
	parts := make([]string, len(p))
	for i, port := range p {
		parts[i] = strconv.Itoa(port)
	}
	return strings.Join(parts, ",")
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PortList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		ports, err := ParsePorts(node.Value)
		if err != nil {
			return err
		}
		*p = ports
		return nil

	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return errors.ErrNoPorts
		}
		ports := make(PortList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return errors.WrapAs(errors.ErrInvalidPorts,
					fmt.Errorf("line %d", item.Line), "port entries must be scalars")
			}
			port, err := parsePort(item.Value)
			if err != nil {
				return err
			}
			ports = append(ports, port)
		}
		*p = ports
		return nil

	default:
		return errors.WrapAs(errors.ErrInvalidPorts,
			fmt.Errorf("line %d", node.Line), "ports must be a string or a sequence")
	}
}

// MarshalYAML implements yaml.Marshaler.
func (p PortList) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}
