package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/storage-mcp/domain/middleware"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

func recordTool(t *testing.T, out string) tool.Tool {
	t.Helper()
	return tool.NewBuilder("record").
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			return tool.NewResult(json.RawMessage(out)), nil
		}).
		MustBuild()
}

func tracer(name string, order *[]string) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, ec *middleware.ExecutionContext) (tool.Result, error) {
			*order = append(*order, "before-"+name)
			result, err := next(ctx, ec)
			*order = append(*order, "after-"+name)
			return result, err
		}
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("chains middleware in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		chain := middleware.Chain(tracer("1", &order), tracer("2", &order), tracer("3", &order))
		handler := chain(func(ctx context.Context, ec *middleware.ExecutionContext) (tool.Result, error) {
			order = append(order, "handler")
			return tool.Result{}, nil
		})

		if _, err := handler(context.Background(), &middleware.ExecutionContext{}); err != nil {
			t.Fatalf("handler error = %v", err)
		}

		want := []string{"before-1", "before-2", "before-3", "handler", "after-3", "after-2", "after-1"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
			}
		}
	})

	t.Run("short circuits", func(t *testing.T) {
		t.Parallel()

		blocked := errors.New("blocked")
		deny := func(next middleware.Handler) middleware.Handler {
			return func(ctx context.Context, ec *middleware.ExecutionContext) (tool.Result, error) {
				return tool.Result{}, blocked
			}
		}
		called := false
		handler := middleware.Chain(deny)(func(ctx context.Context, ec *middleware.ExecutionContext) (tool.Result, error) {
			called = true
			return tool.Result{}, nil
		})

		_, err := handler(context.Background(), &middleware.ExecutionContext{})
		if !errors.Is(err, blocked) {
			t.Errorf("error = %v, want blocked", err)
		}
		if called {
			t.Error("final handler should not run")
		}
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	var order []string
	r := middleware.NewRegistry().Use(tracer("a", &order)).UseMany(tracer("b", &order))
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	clone := r.Clone()
	clone.Use(tracer("c", &order))
	if r.Len() != 2 || clone.Len() != 3 {
		t.Errorf("Clone() shares storage: original %d, clone %d", r.Len(), clone.Len())
	}

	ec := &middleware.ExecutionContext{Tool: recordTool(t, `{"ok":true}`)}
	result, err := r.Handler()(context.Background(), ec)
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if string(result.Output) != `{"ok":true}` {
		t.Errorf("Output = %s", result.Output)
	}
	if len(order) != 4 || order[0] != "before-a" || order[3] != "after-a" {
		t.Errorf("order = %v", order)
	}
}

func TestRegistry_EmptyChainIsNoop(t *testing.T) {
	t.Parallel()

	ec := &middleware.ExecutionContext{Tool: recordTool(t, `"x"`)}
	result, err := middleware.NewRegistry().Handler()(context.Background(), ec)
	if err != nil || string(result.Output) != `"x"` {
		t.Errorf("Handler() = %s, %v", result.Output, err)
	}
}

func TestExecutionContext_Set(t *testing.T) {
	t.Parallel()

	var ec middleware.ExecutionContext
	ec.Set("backend", "memory")
	if ec.Vars["backend"] != "memory" {
		t.Errorf("Vars = %v", ec.Vars)
	}
}
