package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSections_PlainListFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config_clash.txt")
	content := "https://a.com/sub\n\n  https://b.com/sub  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Sections(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://a.com/sub", "https://b.com/sub"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}

func TestSections_SubStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config_sub_store.txt")
	content := "-- play_list --\n\navailable: 1.5 GB https://a.com/sub\n\n-- sub_list --\n\nhttps://a.com/sub\nhttps://b.com/sub\n\n-- trailer --\nhttps://ignored.com\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Sections(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://a.com/sub", "https://b.com/sub"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}

func TestSections_MissingFile(t *testing.T) {
	if _, err := Sections(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestPush(t *testing.T) {
	const merged = "https://a.com/sub\nhttps://b.com/sub"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method=%s, want=PATCH", r.Method)
		}
		if r.URL.Path != "/hbgx" {
			t.Errorf("path=%s, want=/hbgx", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q, want=application/json", ct)
		}
		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got["name"] != "hbgx" {
			t.Errorf("name=%v, want=hbgx", got["name"])
		}
		if got["url"] != merged {
			t.Errorf("url=%v, want=%q", got["url"], merged)
		}
		if got["source"] != "remote" {
			t.Errorf("source=%v, want=remote", got["source"])
		}
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer ts.Close()

	c := &Client{API: ts.URL, HTTP: ts.Client()}
	if err := c.Push(context.Background(), merged); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func TestPush_NonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := &Client{API: ts.URL, HTTP: ts.Client()}
	if err := c.Push(context.Background(), "x"); err == nil {
		t.Fatalf("expected an error on 401")
	}
}
