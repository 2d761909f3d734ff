package pilot

import (
	"context"
	"image"
	"time"

	"github.com/stretchr/testify/mock"
)

// mockBrowser implements Browser with testify expectations
type mockBrowser struct {
	mock.Mock
}

func (m *mockBrowser) CaptureScreen(ctx context.Context) (image.Image, error) {
	args := m.Called()
	img, _ := args.Get(0).(image.Image)
	return img, args.Error(1)
}

func (m *mockBrowser) ExecuteScript(ctx context.Context, fn string, params ...any) error {
	return m.Called(fn).Error(0)
}

func (m *mockBrowser) ClickAt(ctx context.Context, loc ControlLocation) error {
	return m.Called(loc).Error(0)
}

func (m *mockBrowser) WaitUntil(ctx context.Context, predicate string, timeout time.Duration) error {
	return m.Called(predicate, timeout).Error(0)
}

func (m *mockBrowser) CanvasGeometry(ctx context.Context) (CanvasGeometry, error) {
	args := m.Called()
	return args.Get(0).(CanvasGeometry), args.Error(1)
}

func (m *mockBrowser) Close() error {
	return m.Called().Error(0)
}

// launcherFor returns a Launcher that hands out b
func launcherFor(b Browser, err error) Launcher {
	return func(ctx context.Context, cfg AppConfig) (Browser, error) {
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}
