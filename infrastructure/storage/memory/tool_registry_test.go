package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

func newTestTool(name string) tool.Tool {
	return tool.NewBuilder(name).
		WithDescription("Mock " + name).
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			return tool.Result{}, nil
		}).
		MustBuild()
}

func TestToolRegistry_Register(t *testing.T) {
	registry := NewToolRegistry()

	t.Run("successful registration", func(t *testing.T) {
		if err := registry.Register(newTestTool("head-bucket")); err != nil {
			t.Errorf("Register() error = %v, want nil", err)
		}
		if registry.Count() != 1 {
			t.Errorf("Count() = %d, want 1", registry.Count())
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		err := registry.Register(newTestTool("head-bucket"))
		if !errors.Is(err, tool.ErrToolExists) {
			t.Errorf("Register() error = %v, want ErrToolExists", err)
		}
	})
}

func TestToolRegistry_Get(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(newTestTool("list-keys"))

	if got, ok := registry.Get("list-keys"); !ok || got.Name() != "list-keys" {
		t.Errorf("Get(list-keys) = %v, %v", got, ok)
	}
	if _, ok := registry.Get("nonexistent"); ok {
		t.Error("Get() returned true for non-existing tool")
	}
}

func TestToolRegistry_PreservesOrder(t *testing.T) {
	registry := NewToolRegistry()
	want := []string{"init-backend", "create-bucket", "delete-cloudobject", "get-object"}
	for _, name := range want {
		registry.Register(newTestTool(name))
	}

	names := registry.Names()
	tools := registry.List()
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], name)
		}
		if tools[i].Name() != name {
			t.Errorf("List()[%d] = %s, want %s", i, tools[i].Name(), name)
		}
	}
}

func TestToolRegistry_ConcurrentRegister(t *testing.T) {
	registry := NewToolRegistry()

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			registry.Register(newTestTool(name))
		}(name)
	}
	wg.Wait()

	if registry.Count() != 6 || len(registry.Names()) != 6 {
		t.Errorf("Count() = %d, Names() = %v", registry.Count(), registry.Names())
	}
}
