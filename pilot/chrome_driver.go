package pilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ChromeDriver drives a local Chrome through the DevTools protocol
type ChromeDriver struct {
	selector    string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// LaunchChrome starts Chrome with a persistent profile and opens cfg.URL.
// It satisfies Launcher.
func LaunchChrome(ctx context.Context, cfg AppConfig) (Browser, error) {
	profile, err := filepath.Abs(cfg.ProfileDir)
	if err != nil {
		return nil, fmt.Errorf("resolving profile dir: %w", err)
	}
	if err := os.MkdirAll(profile, 0755); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profile),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)

	// The browser outlives ctx; ctx only bounds the launch itself.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{
		selector:    cfg.CanvasSelector,
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}

	if err := d.run(ctx, chromedp.Navigate(cfg.URL)); err != nil {
		_ = d.Close()
		return nil, wrapDriverError("navigate", err)
	}
	return d, nil
}

// run executes actions on the browser tab, aborting when ctx is done
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// CaptureScreen screenshots the canvas element
func (d *ChromeDriver) CaptureScreen(ctx context.Context) (image.Image, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.Screenshot(d.selector, &buf, chromedp.ByQuery)); err != nil {
		return nil, wrapDriverError("screenshot", err)
	}
	return DecodeScreenshot(bytes.NewReader(buf))
}

// ExecuteScript calls fn on the canvas element
func (d *ChromeDriver) ExecuteScript(ctx context.Context, fn string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	argJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshaling script arguments: %w", err)
	}
	wrapped := fmt.Sprintf("function() { return (%s).apply(this, %s); }", fn, argJSON)

	err = d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(d.selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return fmt.Errorf("no element matches %q", d.selector)
		}

		obj, err := dom.ResolveNode().WithNodeID(nodes[0].NodeID).Do(ctx)
		if err != nil {
			return err
		}

		_, exc, err := runtime.CallFunctionOn(wrapped).
			WithObjectID(obj.ObjectID).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script exception: %s", exceptionText(exc))
		}
		return nil
	}))
	if err != nil {
		return wrapDriverError("execute script", err)
	}
	return nil
}

func exceptionText(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return strings.TrimSpace(exc.Text)
}

// ClickAt clicks the canvas at an offset from its center
func (d *ChromeDriver) ClickAt(ctx context.Context, loc ControlLocation) error {
	g, err := d.CanvasGeometry(ctx)
	if err != nil {
		return err
	}

	x := g.Left + g.Width/2 + float64(loc.ColumnOffset)
	y := g.Top + g.Height/2 + float64(loc.RowOffset)
	if err := d.run(ctx, chromedp.MouseClickXY(x, y)); err != nil {
		return wrapDriverError("click", err)
	}
	return nil
}

// WaitUntil polls predicate in the page
func (d *ChromeDriver) WaitUntil(ctx context.Context, predicate string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var ok bool
	if err := d.run(tctx, chromedp.Poll(predicate, &ok, chromedp.WithPollingTimeout(timeout))); err != nil {
		return wrapDriverError("wait for "+predicate, err)
	}
	return nil
}

// CanvasGeometry reads the canvas bounding box
func (d *ChromeDriver) CanvasGeometry(ctx context.Context) (CanvasGeometry, error) {
	sel, err := json.Marshal(d.selector)
	if err != nil {
		return CanvasGeometry{}, err
	}
	js := fmt.Sprintf(`(() => {
		const r = document.querySelector(%s).getBoundingClientRect();
		return {x: r.left, y: r.top, width: r.width, height: r.height};
	})()`, sel)

	var g CanvasGeometry
	if err := d.run(ctx, chromedp.Evaluate(js, &g)); err != nil {
		return CanvasGeometry{}, wrapDriverError("read canvas geometry", err)
	}
	return g, nil
}

// Close shuts the tab and the browser process
func (d *ChromeDriver) Close() error {
	d.cancel()
	d.allocCancel()
	return nil
}

func wrapDriverError(action string, err error) error {
	return fmt.Errorf("%s failed: %w", action, err)
}
