package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"golang.org/x/time/rate"
)

const channelPage = `<!DOCTYPE html><html><body>
<a href="https://t.me/somechannel">channel header link</a>
<div class="tgme_widget_message_text">
  today's subscription: https://sub.example.com/api/v1/client/subscribe?token=abc
  backup https://mirror.example.org/sub
  join https://t.me/otherchannel
  <img src="https://cdn-telegram.org/file/photo.jpg">
  image: https://cdn-telegram.org/file/photo.jpg
</div>
<div class="tgme_widget_message_text">
  repeat: https://sub.example.com/api/v1/client/subscribe?token=abc
</div>
</body></html>`

func TestExtractLinks(t *testing.T) {
	got := ExtractLinks(channelPage)
	want := []string{
		"https://sub.example.com/api/v1/client/subscribe?token=abc",
		"https://mirror.example.org/sub",
		"https://sub.example.com/api/v1/client/subscribe?token=abc",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}

func TestExtractLinks_NoMessageBlocksScansWholePage(t *testing.T) {
	page := `<html><body><p>see https://raw.example.net/list.txt</p></body></html>`
	got := ExtractLinks(page)
	want := []string{"https://raw.example.net/list.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}

func TestCollect_DedupesAcrossChannels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(channelPage))
	}))
	defer ts.Close()

	h := &Harvester{Client: ts.Client(), Limiter: rate.NewLimiter(rate.Inf, 1)}
	got := h.Collect(context.Background(), []string{ts.URL + "/a", ts.URL + "/dead", ts.URL + "/b"})
	want := []string{
		"https://sub.example.com/api/v1/client/subscribe?token=abc",
		"https://mirror.example.org/sub",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v, want=%v", got, want)
	}
}
