package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchRecording(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("wav-bytes"))
	}))
	defer ts.Close()

	c := NewClient(ClientConfig{AccountSID: "AC123", AuthToken: "secret"})
	audio, err := c.FetchRecording(context.Background(), ts.URL+"/recording")
	if err != nil {
		t.Fatalf("FetchRecording() error = %v", err)
	}
	if string(audio) != "wav-bytes" {
		t.Fatalf("FetchRecording() = %q, want %q", audio, "wav-bytes")
	}
}

func TestFetchRecordingErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ClientConfig{AccountSID: "AC123", AuthToken: "secret"})
	if _, err := c.FetchRecording(context.Background(), ts.URL+"/gone"); err == nil {
		t.Fatalf("FetchRecording() on 404 should fail")
	}
}

func TestCreateCall(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Calls.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("To"); got != "+963999" {
			t.Errorf("To = %q, want %q", got, "+963999")
		}
		if got := r.PostForm.Get("Url"); got != "https://agent.example/webhook/voice" {
			t.Errorf("Url = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "CA999"}`))
	}))
	defer ts.Close()

	c := NewClient(ClientConfig{AccountSID: "AC123", AuthToken: "secret", APIBaseURL: ts.URL})
	sid, err := c.CreateCall(context.Background(), "+963999", "+1555", "https://agent.example/webhook/voice")
	if err != nil {
		t.Fatalf("CreateCall() error = %v", err)
	}
	if sid != "CA999" {
		t.Fatalf("CreateCall() sid = %q, want %q", sid, "CA999")
	}
}

func TestCreateCallValidation(t *testing.T) {
	c := NewClient(ClientConfig{AccountSID: "AC123", AuthToken: "secret"})
	if _, err := c.CreateCall(context.Background(), "", "+1555", "https://agent.example/hook"); err == nil {
		t.Fatalf("CreateCall() without a destination should fail")
	}
	if _, err := c.CreateCall(context.Background(), "+963999", "+1555", ""); err == nil {
		t.Fatalf("CreateCall() without a webhook url should fail")
	}
}
