package resolver

import (
	"fmt"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
)

// Shape what a resolver can handle: member kind, marker and scope
type Shape struct {
	Kind   descriptor.Kind
	Marker descriptor.Marker
	Scope  descriptor.Scope
}

// ShapeOf the shape of a member
func ShapeOf(m descriptor.Member) Shape {
	return Shape{Kind: m.Kind(), Marker: m.Marker(), Scope: m.Scope()}
}

// ClassShape the shape of a whole class resolution
func ClassShape(cd *descriptor.ClassDescriptor) Shape {
	return Shape{Kind: descriptor.KindClass, Marker: cd.Marker, Scope: cd.Scope}
}

func (s Shape) String() string {
	return fmt.Sprintf("%s/%s/%s", s.Kind, s.Marker, s.Scope)
}

// shapes expands every combination of markers and scopes for kind
func shapes(kind descriptor.Kind, markers []descriptor.Marker, scopes ...descriptor.Scope) []Shape {
	out := make([]Shape, 0, len(markers)*len(scopes))
	for _, m := range markers {
		for _, s := range scopes {
			out = append(out, Shape{Kind: kind, Marker: m, Scope: s})
		}
	}
	return out
}

var (
	classMarkers = []descriptor.Marker{descriptor.MarkerService, descriptor.MarkerFactory}
	bothScopes   = []descriptor.Scope{descriptor.Singleton, descriptor.Prototype}
)
