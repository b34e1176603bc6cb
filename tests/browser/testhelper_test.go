package browser_test

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"flightlog/internal/adapters/api"
	"flightlog/internal/adapters/api/apitest"
	web "flightlog/internal/adapters/http"
	"flightlog/internal/adapters/http/perf"
	store "flightlog/internal/adapters/storage/notification"
	"flightlog/internal/application/notifications"
	"flightlog/internal/domain/stats"
)

const (
	testEmail    = "pilot@example.com"
	testPassword = "secret1"
)

// testApp holds the running server, the fake flight API and Playwright handles.
type testApp struct {
	BaseURL string
	API     *apitest.Server
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// skipUnlessBrowser skips in -short mode and unless FLIGHTLOG_BROWSER_TESTS is set,
// since Playwright needs downloaded browsers.
func skipUnlessBrowser(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("FLIGHTLOG_BROWSER_TESTS") == "" {
		t.Skip("set FLIGHTLOG_BROWSER_TESTS=1 to run browser tests")
	}
}

// newTestApp starts the web app against a fresh fake API on a free port.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	fake := apitest.NewServer()
	fake.AddUser(testEmail, testPassword)
	client, err := api.NewClient(fake.URL, fake.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	handler := web.NewMux(web.Deps{
		API:       client,
		Queue:     notifications.NewQueue(store.NewMemoryStore(), notifications.Options{}),
		Collector: perf.NewCollector(perf.DefaultRingSize),
		UI: web.UIOptions{
			AllowFirstClass: true,
			Chart:           stats.DefaultChartOptions,
			RedirectDelay:   1500 * time.Millisecond,
		},
		CSRFKey: bytes.Repeat([]byte{9}, 32),
		TrustedOrigins: []string{
			fmt.Sprintf("127.0.0.1:%d", port),
			fmt.Sprintf("localhost:%d", port),
		},
		RateLimitPerSecond: 1000,
	})
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			t.Logf("test server error: %v", err)
		}
	}()

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		fake.Close()
	})

	return &testApp{BaseURL: baseURL, API: fake, Server: srv, PW: pw, Browser: browser}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in as the test user and waits for the flight list.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("#email").Fill(testEmail); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("#password").Fill(testPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("#login-btn").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not land on the flight list: %v", err)
	}
}

// waitFor fails the test when selector does not appear within five seconds.
func waitFor(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		t.Fatalf("%s not shown: %v", selector, err)
	}
}
