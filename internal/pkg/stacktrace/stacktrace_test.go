package stacktrace

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	t.Parallel()

	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/goseal/internal/integrity/usecase.(*Usecase).Store(0xc000010000)
	/app/internal/integrity/usecase/store.go:42 +0x1a5
net/http.HandlerFunc.ServeHTTP(0xc000120000)
	/usr/local/go/src/net/http/server.go:2220 +0x29
github.com/shandysiswandi/goseal/internal/pkg/router.middlewareRecoverer.func1()
	/app/internal/pkg/router/middleware_recover.go:40
`)

	got := InternalPaths(stack)

	want := []string{
		"internal/integrity/usecase/store.go:42",
		"internal/pkg/router/middleware_recover.go:40",
	}
	if len(got) != len(want) {
		t.Fatalf("InternalPaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("InternalPaths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInternalPaths_live_stack(t *testing.T) {
	t.Parallel()

	got := InternalPaths(debug.Stack())

	if len(got) == 0 {
		t.Fatal("expected at least this test file in the stack")
	}
	if !strings.HasPrefix(got[0], "internal/pkg/stacktrace/stacktrace_test.go:") {
		t.Errorf("unexpected first frame %q", got[0])
	}
}

func TestInternalPaths_empty(t *testing.T) {
	t.Parallel()

	if got := InternalPaths(nil); len(got) != 0 {
		t.Errorf("InternalPaths(nil) = %v, want empty", got)
	}
}
