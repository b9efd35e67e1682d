package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teslashibe/go-silverlink/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock("https://audio.example/1.wav")
	ctx := context.Background()

	t.Run("Synthesize returns url", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "你好", "key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.AudioURL != "https://audio.example/1.wav" {
			t.Errorf("AudioURL = %q", result.AudioURL)
		}
		if result.CharCount != 2 {
			t.Errorf("expected 2 chars, got %d", result.CharCount)
		}
	})

	t.Run("Translate defaults to identity", func(t *testing.T) {
		out, err := mock.Translate(ctx, "你好", "key")
		if err != nil || out != "你好" {
			t.Errorf("Translate = %q, %v", out, err)
		}
	})

	t.Run("Call tracking", func(t *testing.T) {
		mock.Reset()
		mock.Translate(ctx, "one", "k")
		mock.Synthesize(ctx, "two", "k")
		mock.Synthesize(ctx, "three", "k")

		if mock.CallCount("Synthesize") != 2 {
			t.Errorf("expected 2 Synthesize calls, got %d", mock.CallCount("Synthesize"))
		}
		last := mock.LastCall()
		if last == nil || last.Text != "three" {
			t.Errorf("expected last call 'three', got %v", last)
		}
	})
}

func TestMockWithError(t *testing.T) {
	expectedErr := errors.New("test error")
	mock := tts.WithError(expectedErr)

	if _, err := mock.Translate(context.Background(), "test", "k"); !errors.Is(err, expectedErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if _, err := mock.Synthesize(context.Background(), "test", "k"); !errors.Is(err, expectedErr) {
		t.Errorf("expected test error, got %v", err)
	}
}

func TestMockWithLatency(t *testing.T) {
	mock := tts.WithLatency(tts.NewMock("u"), 50*time.Millisecond)

	start := time.Now()
	if _, err := mock.Synthesize(context.Background(), "test", "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected at least 50ms latency, got %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Synthesize(ctx, "test", "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("NewChain requires translators", func(t *testing.T) {
		_, err := tts.NewChain()
		if !errors.Is(err, tts.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("First translator succeeds", func(t *testing.T) {
		first := &tts.Mock{TranslateFunc: func(ctx context.Context, text, key string) (string, error) {
			return "lí hó", nil
		}}
		second := tts.NewMock("")

		chain, _ := tts.NewChain(first, second)
		out, err := chain.Translate(ctx, "你好", "k")
		if err != nil || out != "lí hó" {
			t.Fatalf("Translate = %q, %v", out, err)
		}
		if second.CallCount("Translate") != 0 {
			t.Error("second translator should not be called")
		}
	})

	t.Run("Fallback to passthrough", func(t *testing.T) {
		chain, _ := tts.NewChain(tts.WithError(errors.New("down")), tts.Passthrough{})
		out, err := chain.Translate(ctx, "好的", "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "好的" {
			t.Errorf("expected original text, got %q", out)
		}
	})

	t.Run("All translators fail", func(t *testing.T) {
		err1 := errors.New("error 1")
		err2 := errors.New("error 2")
		chain, _ := tts.NewChain(tts.WithError(err1), tts.WithError(err2))

		_, err := chain.Translate(ctx, "test", "k")
		var chainErr *tts.ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("expected ChainError, got %T", err)
		}
		if len(chainErr.Errors) != 2 {
			t.Errorf("expected 2 errors, got %d", len(chainErr.Errors))
		}
		if !errors.Is(err, err2) {
			t.Error("ChainError should unwrap to the last error")
		}
	})
}

func TestTaigiTranslate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("x-api-key") != "taigi-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"outputText":"好，我共你記落來矣。"}`))
	}))
	defer server.Close()

	taigi, err := tts.NewTaigi(tts.WithEndpoints(server.URL, server.URL))
	if err != nil {
		t.Fatalf("NewTaigi: %v", err)
	}

	out, err := taigi.Translate(context.Background(), "好，已經幫您記下來", "taigi-key")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "好，我共你記落來矣。" {
		t.Errorf("Translate = %q", out)
	}
	if got["inputText"] != "好，已經幫您記下來" || got["inputLan"] != "zhtw" || got["outputLan"] != "tw" {
		t.Errorf("request body = %v", got)
	}
}

func TestTaigiSynthesize(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"converted_audio_url":"https://cdn.example/a.wav"}`))
	}))
	defer server.Close()

	taigi, _ := tts.NewTaigi(tts.WithEndpoints(server.URL, server.URL))
	result, err := taigi.Synthesize(context.Background(), "你好", "k")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.AudioURL != "https://cdn.example/a.wav" {
		t.Errorf("AudioURL = %q", result.AudioURL)
	}
	if got["model"] != "model7" || got["voice_label"] != "normal_f2" || got["speed"] != 1.0 || got["text"] != "你好" {
		t.Errorf("request body = %v", got)
	}
}

func TestTaigiErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("quota exceeded"))
	}))
	defer server.Close()

	taigi, _ := tts.NewTaigi(tts.WithEndpoints(server.URL, server.URL))
	ctx := context.Background()

	t.Run("translate status", func(t *testing.T) {
		_, err := taigi.Translate(ctx, "你好", "k")
		var apiErr *tts.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if err.Error() != "Taigi Translation Failed: 403" {
			t.Errorf("Error() = %q", err.Error())
		}
		if !apiErr.IsForbidden() || apiErr.Message != "quota exceeded" {
			t.Errorf("apiErr = %+v", apiErr)
		}
	})

	t.Run("synthesize status", func(t *testing.T) {
		_, err := taigi.Synthesize(ctx, "你好", "k")
		if err == nil || err.Error() != "Taigi TTS Failed: 403" {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, err := taigi.Synthesize(ctx, "你好", ""); !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if _, err := taigi.Translate(ctx, "  ", "k"); !errors.Is(err, tts.ErrEmptyText) {
			t.Errorf("expected ErrEmptyText, got %v", err)
		}
	})
}

func TestTaigiNoAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	taigi, _ := tts.NewTaigi(tts.WithEndpoints(server.URL, server.URL))
	_, err := taigi.Synthesize(context.Background(), "你好", "k")
	if !errors.Is(err, tts.ErrNoAudio) {
		t.Errorf("expected ErrNoAudio, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if _, err := tts.NewTaigi(tts.WithVoice("")); !errors.Is(err, tts.ErrNoVoiceID) {
		t.Errorf("expected ErrNoVoiceID, got %v", err)
	}
	if _, err := tts.NewTaigi(tts.WithEndpoints("", "")); !errors.Is(err, tts.ErrNoEndpoint) {
		t.Errorf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestProviderError(t *testing.T) {
	err := tts.WrapError("taigi", errors.New("connection failed"))
	if err.Error() != "tts [taigi]: connection failed" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if tts.WrapError("taigi", nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}
}
