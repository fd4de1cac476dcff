package ocafile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sk31337/oca/bindings/go/bundle"
)

const Realm = "ocafile"

// HeaderName is the header carrying the bundle name.
const HeaderName = "name"

// Options configure compilation.
type Options struct {
	// Logger receives debug output. slog.Default() is used when nil.
	Logger *slog.Logger
}

type Option func(*Options)

// WithLogger sets the logger used during compilation.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// reserved keys are computed during finalization and cannot be set in a block.
var reserved = []string{"type", "digest", "capture_base"}

// Compile parses src and replays its statements on a new builder.
func Compile(ctx context.Context, src string, opts ...Option) (*bundle.Bundle, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f, err := Parse(src)
	if err != nil {
		return nil, err
	}
	b, err := Apply(ctx, f, bundle.NewBuilder(), logger)
	if err != nil {
		return nil, err
	}
	return b.Finalize()
}

// Apply replays the statements of a parsed file on b.
func Apply(ctx context.Context, f *File, b *bundle.Builder, logger *slog.Logger) (*bundle.Builder, error) {
	for _, h := range f.Headers {
		if h.Key != HeaderName {
			logger.DebugContext(ctx, "ignoring header", "realm", Realm, "line", h.Line, "key", h.Key)
			continue
		}
		if err := b.SetName(h.Value); err != nil {
			return nil, &Error{Line: h.Line, Err: err}
		}
	}

	for _, stmt := range f.Statements {
		if err := apply(stmt, b); err != nil {
			var located *Error
			if errors.As(err, &located) {
				return nil, err
			}
			return nil, &Error{Line: stmt.Pos(), Err: err}
		}
		logger.DebugContext(ctx, "applied statement", "realm", Realm, "line", stmt.Pos(), "statement", fmt.Sprintf("%T", stmt))
	}
	return b, nil
}

func apply(stmt Statement, b *bundle.Builder) error {
	switch s := stmt.(type) {
	case *AddAttribute:
		for _, clause := range s.Attributes {
			if err := b.AddAttribute(clause.Name, clause.Type); err != nil {
				return err
			}
		}
	case *AddFlagged:
		for _, name := range s.Names {
			if err := b.SetFlagged(name); err != nil {
				return err
			}
		}
	case *AddClassification:
		return b.SetClassification(s.Code)
	case *AddOverlay:
		o, err := Overlay(s)
		if err != nil {
			return err
		}
		return b.AddOverlay(o)
	default:
		return fmt.Errorf("%w: unsupported statement %T", ErrSyntax, stmt)
	}
	return nil
}

// Overlay converts the body of an overlay block into the overlay of its kind.
// Blocks become maps, blocks of bare keys become lists.
func Overlay(s *AddOverlay) (bundle.Overlay, error) {
	fields, err := blockValue(s.Body)
	if err != nil {
		return nil, err
	}
	props := map[string]any{}
	switch v := fields.(type) {
	case map[string]any:
		props = v
	case []string:
		return nil, fmt.Errorf("%w: %s overlay block must hold key=value lines", ErrSyntax, s.Kind)
	}
	for _, key := range reserved {
		if _, ok := props[key]; ok {
			return nil, fmt.Errorf("%w: %q cannot be set in an overlay block", ErrSyntax, key)
		}
	}

	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	o := s.Kind.New()
	dec := json.NewDecoder(bytes.NewReader(data))
	if s.Kind != bundle.KindMeta {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(o); err != nil {
		return nil, fmt.Errorf("%w: %s overlay: %w", ErrSyntax, s.Kind, err)
	}
	return o, nil
}

func blockValue(nodes []*Node) (any, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	if !slices.ContainsFunc(nodes, func(n *Node) bool { return n.Value != nil || len(n.Children) > 0 }) {
		names := make([]string, 0, len(nodes))
		for _, n := range nodes {
			names = append(names, n.Key)
		}
		return names, nil
	}

	m := make(map[string]any, len(nodes))
	for _, n := range nodes {
		if _, dup := m[n.Key]; dup {
			return nil, &Error{Line: n.Line, Err: fmt.Errorf("%w: duplicate key %q", ErrSyntax, n.Key)}
		}
		switch {
		case n.Value == nil && len(n.Children) == 0:
			return nil, &Error{Line: n.Line, Err: fmt.Errorf("%w: %q has neither a value nor a block", ErrSyntax, n.Key)}
		case n.Value == nil:
			v, err := blockValue(n.Children)
			if err != nil {
				return nil, err
			}
			m[n.Key] = v
		case n.Value.Kind == ValueList:
			m[n.Key] = n.Value.List
		default:
			m[n.Key] = n.Value.Str
		}
	}
	return m, nil
}
