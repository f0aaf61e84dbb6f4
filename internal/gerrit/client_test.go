package gerrit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestQueryChanges(t *testing.T) {
	var gotPath, gotQuery string
	var gotOptions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotOptions = r.URL.Query()["o"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(")]}'\n[{\"_number\": 101, \"subject\": \"Fix login\", \"branch\": \"main\", \"status\": \"NEW\"}]"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	changes, err := client.QueryChanges(context.Background(), "status:open", "CURRENT_REVISION")
	if err != nil {
		t.Fatalf("QueryChanges returned error: %v", err)
	}

	if gotPath != "/changes/" {
		t.Errorf("path = %q, want /changes/", gotPath)
	}
	if gotQuery != "status:open" {
		t.Errorf("q = %q", gotQuery)
	}
	if len(gotOptions) != 1 || gotOptions[0] != "CURRENT_REVISION" {
		t.Errorf("o = %v", gotOptions)
	}
	if len(changes) != 1 || changes[0].Number != 101 || changes[0].Subject != "Fix login" {
		t.Errorf("changes = %+v", changes)
	}
}

func TestAuthenticatedPrefix(t *testing.T) {
	var gotPath string
	var gotUser, gotPass string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, hasAuth = r.BasicAuth()
		_, _ = w.Write([]byte(")]}'\n[]"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "jsmith", "secret")
	if _, err := client.QueryChanges(context.Background(), "status:open"); err != nil {
		t.Fatalf("QueryChanges returned error: %v", err)
	}
	if gotPath != "/a/changes/" {
		t.Errorf("path = %q, want the authenticated /a/ prefix", gotPath)
	}
	if !hasAuth || gotUser != "jsmith" || gotPass != "secret" {
		t.Errorf("basic auth = %q/%q (%v)", gotUser, gotPass, hasAuth)
	}
}

func TestCookieAuth(t *testing.T) {
	var gotPath, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte(")]}'\n[]"))
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	host = strings.Split(host, ":")[0]
	cookieFile := filepath.Join(t.TempDir(), "gitcookies")
	lines := strings.Join([]string{
		"# Netscape HTTP Cookie File",
		"other.example.com\tFALSE\t/\tTRUE\t2147483647\to\tirrelevant",
		host + "\tFALSE\t/\tTRUE\t2147483647\to\tgit-jsmith=token123",
		"",
	}, "\n")
	if err := os.WriteFile(cookieFile, []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}

	client := NewClient(srv.URL, "", "")
	client.UseCookieFile(cookieFile)
	if _, err := client.QueryChanges(context.Background(), "status:open"); err != nil {
		t.Fatalf("QueryChanges returned error: %v", err)
	}
	if gotPath != "/a/changes/" {
		t.Errorf("path = %q, want the authenticated /a/ prefix", gotPath)
	}
	if gotCookie != "o=git-jsmith=token123" {
		t.Errorf("cookie = %q", gotCookie)
	}
}

func TestCookieDomainMatches(t *testing.T) {
	tests := []struct {
		domain, host string
		want         bool
	}{
		{"gerrit.example.com", "gerrit.example.com", true},
		{"gerrit.example.com", "other.example.com", false},
		{".example.com", "gerrit.example.com", true},
		{".example.com", "example.com", true},
		{".example.com", "badexample.com", false},
	}
	for _, tt := range tests {
		if got := cookieDomainMatches(tt.domain, tt.host); got != tt.want {
			t.Errorf("cookieDomainMatches(%q, %q) = %v, want %v", tt.domain, tt.host, got, tt.want)
		}
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "change is closed", http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	err := client.AbandonChange(context.Background(), "101", "")
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("AbandonChange = %v, want ServerError", err)
	}
	if serr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d", serr.StatusCode)
	}
	if got := serr.Error(); got == "" || got == "change not found on Gerrit server" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNotFoundMessage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	_, err := client.GetChange(context.Background(), "doesnotexist")
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("GetChange = %v, want ServerError", err)
	}
	if serr.Error() != "change not found on Gerrit server" {
		t.Errorf("Error() = %q", serr.Error())
	}
}

func TestSetReviewBody(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		_, _ = w.Write([]byte(")]}'\n{}"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	err := client.SetReview(context.Background(), "101", "", &ReviewInput{
		Message: "looks good",
		Labels:  map[string]int{"Code-Review": 2},
	})
	if err != nil {
		t.Fatalf("SetReview returned error: %v", err)
	}
	if gotPath != "/changes/101/revisions/current/review" {
		t.Errorf("path = %q", gotPath)
	}
	for _, want := range []string{`"looks good"`, `"Code-Review":2`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body %q missing %q", gotBody, want)
		}
	}
}

func TestTimestampParsing(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"with fractions", `{"created": "2026-08-01 10:30:00.000000000"}`},
		{"without fractions", `{"created": "2026-08-01 10:30:00"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c ChangeInfo
			if err := json.Unmarshal([]byte(tt.json), &c); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if c.Created.IsZero() {
				t.Error("timestamp parsed as zero")
			}
			if c.Created.Hour() != 10 || c.Created.Minute() != 30 {
				t.Errorf("timestamp = %v", c.Created.Time)
			}
		})
	}
}
