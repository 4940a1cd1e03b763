package service

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/vanshavali/familytree/common/models"
)

// Filter evaluates CEL expressions against members, e.g.
//
//	is_alive && generation >= 2 && name.startsWith("Ram")
type Filter struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewFilter creates the CEL environment with one variable per member field
func NewFilter() (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("address", cel.StringType),
		cel.Variable("mobile", cel.StringType),
		cel.Variable("dob", cel.StringType),
		cel.Variable("is_alive", cel.BoolType),
		cel.Variable("generation", cel.IntType),
		cel.Variable("occupation", cel.StringType),
		cel.Variable("education", cel.StringType),
		cel.Variable("relation", cel.StringType),
		cel.Variable("has_parent", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	return &Filter{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

func (f *Filter) program(expr string) (cel.Program, error) {
	f.mu.RLock()
	prg, ok := f.cache[expr]
	f.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: filter: %v", ErrInvalidInput, issues.Err())
	}

	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	f.mu.Lock()
	f.cache[expr] = prg
	f.mu.Unlock()
	return prg, nil
}

// Apply returns the members matching expr, in input order.
// An empty expression matches everything.
func (f *Filter) Apply(expr string, members []models.Member) ([]models.Member, error) {
	if expr == "" {
		return members, nil
	}

	prg, err := f.program(expr)
	if err != nil {
		return nil, err
	}

	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		val, _, err := prg.Eval(activation(&m))
		if err != nil {
			return nil, fmt.Errorf("%w: filter evaluation: %v", ErrInvalidInput, err)
		}
		keep, ok := val.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("%w: filter must be boolean, got %T", ErrInvalidInput, val.Value())
		}
		if keep {
			out = append(out, m)
		}
	}
	return out, nil
}

// CacheSize returns the number of compiled expressions
func (f *Filter) CacheSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

func activation(m *models.Member) map[string]interface{} {
	return map[string]interface{}{
		"id":         m.ID.String(),
		"name":       m.Name,
		"address":    m.Address,
		"mobile":     m.Mobile,
		"dob":        m.DOB,
		"is_alive":   m.IsAlive,
		"generation": int64(m.GenerationID),
		"occupation": m.Occupation,
		"education":  m.Education,
		"relation":   string(m.Relation),
		"has_parent": m.ParentID != nil,
	}
}
