package directions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-silverlink/pkg/transit"
)

type fakeFinder struct {
	key string
	err error
}

func (f *fakeFinder) Route(ctx context.Context, q Query) (transit.Route, error) {
	return transit.Route{Summary: f.key}, f.err
}

func countingFactory(builds *int32, errFor map[string]error) Factory {
	return func(key string) (RouteFinder, error) {
		atomic.AddInt32(builds, 1)
		time.Sleep(5 * time.Millisecond)
		return &fakeFinder{key: key, err: errFor[key]}, nil
	}
}

func TestLoaderSingleFlight(t *testing.T) {
	var builds int32
	loader := NewLoader(countingFactory(&builds, nil), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			route, err := loader.Route(context.Background(), Query{}, "key-a")
			if err != nil || route.Summary != "key-a" {
				t.Errorf("Route = %+v, %v", route, err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&builds); got != 1 {
		t.Errorf("builds = %d, want 1", got)
	}
}

func TestLoaderRecreatesOnKeyChange(t *testing.T) {
	var builds int32
	loader := NewLoader(countingFactory(&builds, nil), nil)
	ctx := context.Background()

	loader.Route(ctx, Query{}, "key-a")
	loader.Route(ctx, Query{}, "key-a")
	route, _ := loader.Route(ctx, Query{}, "key-b")

	if route.Summary != "key-b" {
		t.Errorf("route served by %q, want key-b", route.Summary)
	}
	if got := atomic.LoadInt32(&builds); got != 2 {
		t.Errorf("builds = %d, want 2", got)
	}
}

func TestLoaderMissingKey(t *testing.T) {
	var builds int32
	loader := NewLoader(countingFactory(&builds, nil), nil)

	if _, err := loader.Route(context.Background(), Query{}, ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	if builds != 0 {
		t.Errorf("factory should not run without a key")
	}
}

func TestLoaderFactoryErrorRetries(t *testing.T) {
	var calls int32
	loader := NewLoader(func(key string) (RouteFinder, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("boom")
		}
		return &fakeFinder{key: key}, nil
	}, nil)

	if _, err := loader.Route(context.Background(), Query{}, "k"); err == nil {
		t.Fatal("expected factory error")
	}
	if _, err := loader.Route(context.Background(), Query{}, "k"); err != nil {
		t.Fatalf("second attempt should rebuild: %v", err)
	}
}

func TestLoaderPublishesAuthFailure(t *testing.T) {
	var builds int32
	denied := statusError("REQUEST_DENIED", "The provided API key is invalid.")
	loader := NewLoader(countingFactory(&builds, map[string]error{"bad": denied}), nil)

	_, err := loader.Route(context.Background(), Query{}, "bad")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	select {
	case f := <-loader.AuthFailures():
		if f.Message == "" || f.At.IsZero() {
			t.Errorf("failure = %+v", f)
		}
	case <-time.After(time.Second):
		t.Fatal("no auth failure published")
	}

	// The rejected client is dropped so the next call rebuilds.
	loader.Route(context.Background(), Query{}, "bad")
	if got := atomic.LoadInt32(&builds); got != 2 {
		t.Errorf("builds = %d, want 2", got)
	}
}

func TestLoaderNoSignalForOtherErrors(t *testing.T) {
	var builds int32
	loader := NewLoader(countingFactory(&builds, map[string]error{"k": statusError("ZERO_RESULTS", "")}), nil)

	loader.Route(context.Background(), Query{}, "k")
	select {
	case f := <-loader.AuthFailures():
		t.Errorf("unexpected failure %+v", f)
	default:
	}
}
