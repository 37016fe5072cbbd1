package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/config"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

func newTestReplicate(t *testing.T, handler http.HandlerFunc) *Replicate {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewReplicate(config.Config{ReplicateAPIToken: "r8_test", ReplicateBaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewReplicate: %v", err)
	}
	return client
}

func TestReplicateSubmit(t *testing.T) {
	var gotBody map[string]interface{}
	client := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predictions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token r8_test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pred-1","status":"starting","logs":null,"error":null}`))
	})

	req, err := BuildRequest(entity.NewOutgoing(&entity.Refinement{Seed: 3}), Versions{Refinement: "v-ref"})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	prediction, err := client.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if prediction.ID != "pred-1" || prediction.Status != "starting" {
		t.Errorf("unexpected prediction %+v", prediction)
	}
	if gotBody["version"] != "v-ref" {
		t.Errorf("unexpected version %v", gotBody["version"])
	}
	input, _ := gotBody["input"].(map[string]interface{})
	if input["type"] != "refinement" {
		t.Errorf("expected refinement input, got %v", gotBody["input"])
	}
}

func TestReplicateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "detail", status: http.StatusUnprocessableEntity, body: `{"detail":"Invalid version or not permitted"}`, message: "Invalid version or not permitted"},
		{name: "no detail", status: http.StatusBadGateway, body: `upstream failure`, message: "replicate http 502: upstream failure"},
		{name: "wrong success code", status: http.StatusOK, body: `{"id":"pred-1"}`, message: "replicate http 200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Submit(context.Background(), Request{Version: "v", Input: map[string]string{}})
			if !errors.Is(err, apperrors.ErrProvider) {
				t.Fatalf("expected provider error, got %v", err)
			}
			if !strings.HasPrefix(err.Error(), tt.message) {
				t.Errorf("expected message starting %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestReplicatePoll(t *testing.T) {
	client := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/predictions/pred-9" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"pred-9","status":"failed","logs":"OOM","error":"CUDA out of memory"}`))
	})

	prediction, err := client.Poll(context.Background(), "pred-9")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if prediction.Status != "failed" || prediction.Logs != "OOM" || prediction.Error != "CUDA out of memory" {
		t.Errorf("unexpected prediction %+v", prediction)
	}
}

func TestReplicateTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewReplicate(config.Config{ReplicateAPIToken: "t", ReplicateBaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewReplicate: %v", err)
	}
	server.Close()

	_, err = client.Poll(context.Background(), "pred-1")
	if !errors.Is(err, apperrors.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestNewReplicateRequiresToken(t *testing.T) {
	if _, err := NewReplicate(config.Config{}); err == nil {
		t.Fatal("expected error without api token")
	}
}
