package model

import (
	"fmt"
	"strings"
)

// Protocol identifies the access protocol advertised by a catalogue record.
// The values match the protocol anchors used by the Nationaal Georegister.
type Protocol string

const (
	ProtocolWMS            Protocol = "OGC:WMS"
	ProtocolWFS            Protocol = "OGC:WFS"
	ProtocolWCS            Protocol = "OGC:WCS"
	ProtocolWMTS           Protocol = "OGC:WMTS"
	ProtocolAtom           Protocol = "INSPIRE Atom"
	ProtocolOGCAPITiles    Protocol = "OGC:API tiles"
	ProtocolOGCAPIFeatures Protocol = "OGC:API features"
)

// AllProtocols returns every supported protocol in query order.
func AllProtocols() []Protocol {
	return []Protocol{
		ProtocolWFS,
		ProtocolWMS,
		ProtocolWCS,
		ProtocolWMTS,
		ProtocolAtom,
		ProtocolOGCAPITiles,
		ProtocolOGCAPIFeatures,
	}
}

// ParseProtocol maps a raw protocol string onto the supported enum.
func ParseProtocol(s string) (Protocol, error) {
	for _, p := range AllProtocols() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported protocol %q", s)
}

// ParseProtocols parses a comma-separated protocol list.
func ParseProtocols(s string) ([]Protocol, error) {
	if strings.TrimSpace(s) == "" {
		return AllProtocols(), nil
	}
	parts := strings.Split(s, ",")
	out := make([]Protocol, 0, len(parts))
	for _, part := range parts {
		p, err := ParseProtocol(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Valid reports whether p is one of the supported protocols.
func (p Protocol) Valid() bool {
	_, err := ParseProtocol(string(p))
	return err == nil
}

// ShortName returns the lowercased short type used in sort rules and
// GetCapabilities queries, e.g. "wms" for OGC:WMS or "atom" for INSPIRE Atom.
func (p Protocol) ShortName() string {
	if p == ProtocolAtom {
		return "atom"
	}
	if _, after, found := strings.Cut(string(p), ":"); found {
		return strings.ToLower(after)
	}
	return strings.ToLower(string(p))
}

// QueryType returns the value of the service query parameter in a canonical
// GetCapabilities URL, e.g. "WMS" for OGC:WMS.
func (p Protocol) QueryType() string {
	if _, after, found := strings.Cut(string(p), ":"); found {
		return after
	}
	return string(p)
}
