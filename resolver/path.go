package resolver

import (
	"context"
	"reflect"
	"strings"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
)

type pathKey struct{}

// frame one source member being resolved on the current goroutine
type frame struct {
	member   descriptor.Member
	parent   *frame
	instance reflect.Value // published early reference, singletons only
}

// Enter pushes source onto the resolution path carried by ctx.
// When source is already on the path, its published early reference is
// returned, or ErrCycle when nothing was published.
func Enter(ctx context.Context, source descriptor.Member) (context.Context, reflect.Value, error) {
	top, _ := ctx.Value(pathKey{}).(*frame)
	for f := top; f != nil; f = f.parent {
		if f.member != source {
			continue
		}
		if f.instance.IsValid() {
			return ctx, f.instance, nil
		}
		return ctx, reflect.Value{}, ErrCycle.
			WithMsgf("cycle while resolving %s: %s", source, formatPath(top, source)).
			WithData("member", source.String())
	}
	return context.WithValue(ctx, pathKey{}, &frame{member: source, parent: top}), reflect.Value{}, nil
}

// Publish exposes a constructed but not yet initialized instance to
// requests for source deeper on the same path
func Publish(ctx context.Context, source descriptor.Member, v reflect.Value) {
	for f, _ := ctx.Value(pathKey{}).(*frame); f != nil; f = f.parent {
		if f.member == source {
			f.instance = v
			return
		}
	}
}

// Path members on the resolution path, outermost first
func Path(ctx context.Context) []descriptor.Member {
	var out []descriptor.Member
	for f, _ := ctx.Value(pathKey{}).(*frame); f != nil; f = f.parent {
		out = append([]descriptor.Member{f.member}, out...)
	}
	return out
}

func formatPath(top *frame, closing descriptor.Member) string {
	var parts []string
	for f := top; f != nil; f = f.parent {
		parts = append([]string{f.member.String()}, parts...)
	}
	parts = append(parts, closing.String())
	return strings.Join(parts, " -> ")
}
