package transcribe_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

type fakeEngine struct {
	size   transcribe.Size
	closed atomic.Bool
}

func (f *fakeEngine) Transcribe(context.Context, string, transcribe.Options) (transcribe.Result, error) {
	return transcribe.Result{Text: string(f.size)}, nil
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

func TestModels_LoadsOncePerSize(t *testing.T) {
	t.Parallel()

	var loads atomic.Int32
	release := make(chan struct{})
	models := transcribe.NewModels(func(_ context.Context, size transcribe.Size) (transcribe.Engine, error) {
		loads.Add(1)
		<-release
		return &fakeEngine{size: size}, nil
	})

	const callers = 8
	var wg sync.WaitGroup
	engines := make([]transcribe.Engine, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := models.Get(context.Background(), transcribe.SizeSmall)
			if err != nil {
				t.Errorf("Get() unexpected error: %v", err)
				return
			}
			engines[i] = e
		}()
	}
	close(release)
	wg.Wait()

	if loads.Load() != 1 {
		t.Errorf("loader called %d times, want 1", loads.Load())
	}
	for i := 1; i < callers; i++ {
		if engines[i] != engines[0] {
			t.Fatalf("caller %d got a different engine", i)
		}
	}

	if _, err := models.Get(context.Background(), transcribe.SizeLarge); err != nil {
		t.Fatalf("Get(large) unexpected error: %v", err)
	}
	if loads.Load() != 2 {
		t.Errorf("loader called %d times after second size, want 2", loads.Load())
	}

	loaded := models.Loaded()
	if len(loaded) != 2 || loaded[0] != transcribe.SizeSmall || loaded[1] != transcribe.SizeLarge {
		t.Errorf("Loaded() = %v, want [small large]", loaded)
	}
}

func TestModels_FailedLoadIsNotCached(t *testing.T) {
	t.Parallel()

	var loads atomic.Int32
	models := transcribe.NewModels(func(_ context.Context, size transcribe.Size) (transcribe.Engine, error) {
		if loads.Add(1) == 1 {
			return nil, transcribe.ErrModelLoad
		}
		return &fakeEngine{size: size}, nil
	})

	if _, err := models.Get(context.Background(), transcribe.SizeBase); !errors.Is(err, transcribe.ErrModelLoad) {
		t.Fatalf("first Get() error = %v, want ErrModelLoad", err)
	}
	if _, err := models.Get(context.Background(), transcribe.SizeBase); err != nil {
		t.Fatalf("second Get() unexpected error: %v", err)
	}
	if loads.Load() != 2 {
		t.Errorf("loader called %d times, want 2", loads.Load())
	}
}

func TestModels_UnsupportedSize(t *testing.T) {
	t.Parallel()

	models := transcribe.NewModels(func(context.Context, transcribe.Size) (transcribe.Engine, error) {
		t.Fatal("loader must not be called")
		return nil, nil
	})

	for _, size := range []transcribe.Size{"", "huge"} {
		if _, err := models.Get(context.Background(), size); !errors.Is(err, transcribe.ErrUnsupportedSize) {
			t.Errorf("Get(%q) error = %v, want ErrUnsupportedSize", size, err)
		}
	}
}

func TestModels_Close(t *testing.T) {
	t.Parallel()

	var created []*fakeEngine
	models := transcribe.NewModels(func(_ context.Context, size transcribe.Size) (transcribe.Engine, error) {
		e := &fakeEngine{size: size}
		created = append(created, e)
		return e, nil
	})

	for _, size := range []transcribe.Size{transcribe.SizeTiny, transcribe.SizeMedium} {
		if _, err := models.Get(context.Background(), size); err != nil {
			t.Fatalf("Get(%s) unexpected error: %v", size, err)
		}
	}

	if err := models.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	for _, e := range created {
		if !e.closed.Load() {
			t.Errorf("%s engine not closed", e.size)
		}
	}
	if err := models.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if _, err := models.Get(context.Background(), transcribe.SizeTiny); !errors.Is(err, transcribe.ErrClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
}

func TestNewLoader(t *testing.T) {
	t.Parallel()

	if _, err := transcribe.NewLoader(transcribe.LoaderConfig{Backend: "vosk"}); !errors.Is(err, transcribe.ErrUnknownBackend) {
		t.Errorf("NewLoader(vosk) error = %v, want ErrUnknownBackend", err)
	}

	load, err := transcribe.NewLoader(transcribe.LoaderConfig{Backend: transcribe.BackendOpenAI})
	if err != nil {
		t.Fatalf("NewLoader(openai) unexpected error: %v", err)
	}
	if _, err := load(context.Background(), transcribe.SizeBase); !errors.Is(err, transcribe.ErrAPIKeyMissing) {
		t.Errorf("openai load without key error = %v, want ErrAPIKeyMissing", err)
	}
}

func TestLoaderConfig_ModelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		cfg           transcribe.LoaderConfig
		wantSmall     string
		wantCollapsed bool
	}{
		{
			name:      "whisper uses the size itself",
			cfg:       transcribe.LoaderConfig{Backend: transcribe.BackendWhisper},
			wantSmall: "small",
		},
		{
			name:      "empty backend is whisper",
			cfg:       transcribe.LoaderConfig{},
			wantSmall: "small",
		},
		{
			name:          "openai without a model map serves one model",
			cfg:           transcribe.LoaderConfig{Backend: transcribe.BackendOpenAI},
			wantSmall:     transcribe.DefaultOpenAIModel,
			wantCollapsed: true,
		},
		{
			name: "openai with per-size models",
			cfg: transcribe.LoaderConfig{
				Backend: transcribe.BackendOpenAI,
				OpenAI: transcribe.OpenAIConfig{Models: map[transcribe.Size]string{
					transcribe.SizeSmall: "Systran/faster-whisper-small",
				}},
			},
			wantSmall: "Systran/faster-whisper-small",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.ModelFor(transcribe.SizeSmall); got != tt.wantSmall {
				t.Errorf("ModelFor(small) = %q, want %q", got, tt.wantSmall)
			}
			if got := tt.cfg.Collapsed(); got != tt.wantCollapsed {
				t.Errorf("Collapsed() = %v, want %v", got, tt.wantCollapsed)
			}
		})
	}
}
