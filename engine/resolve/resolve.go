// Package resolve evaluates scenario expressions against the playback
// environment and maps console names to spawned entities.
package resolve

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/nathoo/spellbound/types"
)

// Sentinel errors for use with errors.Is.
var (
	ErrUnboundVariable = errors.New("unbound variable")
	ErrTypeMismatch    = errors.New("type mismatch")
)

// Env maps variable names to values during scenario playback.
type Env map[string]types.Value

// Clone returns a copy of the environment. A nil Env clones to an empty one.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	maps.Copy(out, e)
	return out
}

// UnboundVariableError indicates a Var expression named an absent variable.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("unbound variable %q", e.Name)
}

func (e *UnboundVariableError) Is(target error) bool { return target == ErrUnboundVariable }

// TypeMismatchError indicates an expression had the wrong shape.
type TypeMismatchError struct {
	Name string // empty for literals
	Want types.ValueKind
	Got  types.ValueKind
}

func (e *TypeMismatchError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("expected %s literal, got %s", KindName(e.Want), KindName(e.Got))
	}
	return fmt.Sprintf("variable %q is %s, expected %s", e.Name, KindName(e.Got), KindName(e.Want))
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// KindName returns the data-file name of a value kind.
func KindName(k types.ValueKind) string {
	switch k {
	case types.ValueVec2:
		return "vec2"
	case types.ValueString:
		return "string"
	default:
		return "unknown"
	}
}

// Value resolves an expression to a concrete value.
func Value(expr types.Expr, env Env) (types.Value, error) {
	switch expr.Kind {
	case types.ExprVec2:
		return types.Value{Kind: types.ValueVec2, Vec2: expr.Vec2}, nil
	case types.ExprString:
		return types.Value{Kind: types.ValueString, Str: expr.Str}, nil
	case types.ExprVar:
		v, ok := env[expr.Str]
		if !ok {
			return types.Value{}, &UnboundVariableError{Name: expr.Str}
		}
		return v, nil
	default:
		return types.Value{}, fmt.Errorf("unknown expression kind %d", expr.Kind)
	}
}

// Vec2 resolves an expression that must produce a point.
func Vec2(expr types.Expr, env Env) (types.Vec2, error) {
	v, err := Value(expr, env)
	if err != nil {
		return types.Vec2{}, err
	}
	if v.Kind != types.ValueVec2 {
		return types.Vec2{}, mismatch(expr, types.ValueVec2, v.Kind)
	}
	return v.Vec2, nil
}

// String resolves an expression that must produce text.
func String(expr types.Expr, env Env) (string, error) {
	v, err := Value(expr, env)
	if err != nil {
		return "", err
	}
	if v.Kind != types.ValueString {
		return "", mismatch(expr, types.ValueString, v.Kind)
	}
	return v.Str, nil
}

func mismatch(expr types.Expr, want, got types.ValueKind) error {
	e := &TypeMismatchError{Want: want, Got: got}
	if expr.Kind == types.ExprVar {
		e.Name = expr.Str
	}
	return e
}

// AmbiguityError indicates multiple entities matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no entity matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("there is no %q here", e.Name)
}

// Entity maps a typed name to a spawned entity's name.
func Entity(s *types.State, name string) (string, error) {
	// 1. Exact name.
	if _, ok := s.Entities[name]; ok {
		return name, nil
	}

	// 2. Case-insensitive and word matches.
	nameLower := strings.ToLower(strings.TrimSpace(name))
	var matches []string
	for id, ent := range s.Entities {
		if matchesName(id, ent, nameLower) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// matchesName checks an entity against a lowercased query.
// "cat" matches "witch_cat", "black cat" matches "black_cat", "raven" matches kind "raven".
func matchesName(id string, ent types.EntityState, nameLower string) bool {
	idLower := strings.ToLower(id)
	if idLower == nameLower {
		return true
	}
	if strings.ReplaceAll(nameLower, " ", "_") == idLower {
		return true
	}
	for _, word := range strings.Split(idLower, "_") {
		if word == nameLower {
			return true
		}
	}
	return strings.ToLower(ent.Kind) == nameLower
}
