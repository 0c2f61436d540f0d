package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupchat/core"
)

// fakeAssistants is a minimal in-process stand-in for the Assistants API.
type fakeAssistants struct {
	mu        sync.Mutex
	requests  []string
	runBody   map[string]any
	polls     int
	runStatus string
	reply     string
}

func (f *fakeAssistants) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	mux.HandleFunc("POST /v1/assistants", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.record("create " + body["name"].(string) + " " + body["model"].(string))
		write(w, http.StatusOK, `{"id":"asst_1","object":"assistant","name":"`+body["name"].(string)+`","model":"gpt-4o"}`)
	})
	mux.HandleFunc("GET /v1/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record("get " + r.PathValue("id"))
		if r.PathValue("id") != "asst_existing" {
			write(w, http.StatusNotFound, `{"error":{"message":"no such assistant"}}`)
			return
		}
		write(w, http.StatusOK, `{"id":"asst_existing","object":"assistant","name":"demo-guide"}`)
	})
	mux.HandleFunc("DELETE /v1/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record("delete " + r.PathValue("id"))
		if r.PathValue("id") == "asst_gone" {
			write(w, http.StatusNotFound, `{"error":{"message":"no such assistant"}}`)
			return
		}
		if r.PathValue("id") == "asst_locked" {
			write(w, http.StatusBadRequest, `{"error":{"message":"locked"}}`)
			return
		}
		write(w, http.StatusOK, `{"id":"`+r.PathValue("id")+`","object":"assistant.deleted","deleted":true}`)
	})
	mux.HandleFunc("POST /v1/threads/runs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.runBody = body
		f.mu.Unlock()
		f.record("run")
		write(w, http.StatusOK, `{"id":"run_1","object":"thread.run","thread_id":"thread_1","status":"queued"}`)
	})
	mux.HandleFunc("GET /v1/threads/thread_1/runs/run_1", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		f.polls++
		status := "in_progress"
		if f.polls > 1 {
			status = f.runStatus
		}
		f.mu.Unlock()
		f.record("poll")
		write(w, http.StatusOK, `{"id":"run_1","object":"thread.run","thread_id":"thread_1","status":"`+status+`","last_error":{"code":"server_error","message":"exploded"}}`)
	})
	mux.HandleFunc("GET /v1/threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		f.record("messages " + r.URL.Query().Get("run_id") + " " + r.URL.Query().Get("order"))
		data := `[]`
		if f.reply != "" {
			data = `[{"id":"msg_1","object":"thread.message","role":"assistant","run_id":"run_1","thread_id":"thread_1","content":[{"type":"text","text":{"value":"` + f.reply + `","annotations":[]}}]}]`
		}
		write(w, http.StatusOK, `{"object":"list","data":`+data+`,"has_more":false}`)
	})
	mux.HandleFunc("DELETE /v1/threads/thread_1", func(w http.ResponseWriter, _ *http.Request) {
		f.record("delete thread_1")
		write(w, http.StatusOK, `{"id":"thread_1","object":"thread.deleted","deleted":true}`)
	})

	return mux
}

func (f *fakeAssistants) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, s)
}

func (f *fakeAssistants) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestBackend(t *testing.T, fake *fakeAssistants) *Backend {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	return NewBackend([]option.RequestOption{
		option.WithBaseURL(srv.URL + "/v1/"),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	}, func(o *Options) {
		o.Namespace = "demo"
		o.PollInterval = time.Millisecond
	})
}

func TestBackend_CreateAgent(t *testing.T) {
	fake := &fakeAssistants{}
	be := newTestBackend(t, fake)

	h, err := be.CreateAgent(context.Background(), "gpt-4o", "demo-planner", "Plan things.")
	require.NoError(t, err)

	assert.Equal(t, core.AgentHandle{ID: "asst_1", DisplayName: "planner", Ephemeral: true}, h)
	assert.Equal(t, []string{"create demo-planner gpt-4o"}, fake.Requests())
}

func TestBackend_RetrieveAgent(t *testing.T) {
	fake := &fakeAssistants{}
	be := newTestBackend(t, fake)

	h, err := be.RetrieveAgent(context.Background(), "asst_existing")
	require.NoError(t, err)
	assert.Equal(t, core.AgentHandle{ID: "asst_existing", DisplayName: "guide"}, h)

	_, err = be.RetrieveAgent(context.Background(), "asst_missing")
	assert.ErrorIs(t, err, core.ErrBackend)
}

func TestBackend_DeleteAgent(t *testing.T) {
	fake := &fakeAssistants{}
	be := newTestBackend(t, fake)

	require.NoError(t, be.DeleteAgent(context.Background(), core.AgentHandle{ID: "asst_1"}))
	require.NoError(t, be.DeleteAgent(context.Background(), core.AgentHandle{ID: "asst_gone"}))

	err := be.DeleteAgent(context.Background(), core.AgentHandle{ID: "asst_locked", DisplayName: "editor"})
	var backendErr *core.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "delete", backendErr.Op)
	assert.Equal(t, "editor", backendErr.Agent)
}

func TestBackend_Invoke(t *testing.T) {
	fake := &fakeAssistants{runStatus: "completed", reply: "Here is the plan."}
	be := newTestBackend(t, fake)

	history := []core.Message{
		core.NewUserMessage("Draft a plan."),
		core.NewAgentMessage("researcher", "Some context."),
		core.NewToolMessage("search", "ignored"),
	}

	reply, err := be.Invoke(context.Background(), core.AgentHandle{ID: "asst_1", DisplayName: "planner"}, history)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, core.RoleAgent, reply.Role)
	assert.Equal(t, "planner", reply.Author)
	assert.Equal(t, "Here is the plan.", reply.Content)

	assert.Equal(t, []string{"run", "poll", "poll", "messages run_1 asc", "delete thread_1"}, fake.Requests())

	assert.Equal(t, "asst_1", fake.runBody["assistant_id"])
	thread := fake.runBody["thread"].(map[string]any)
	msgs := thread["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
	assert.Equal(t, "Some context.", msgs[1].(map[string]any)["content"])
}

func TestBackend_InvokeEmptyReply(t *testing.T) {
	fake := &fakeAssistants{runStatus: "completed"}
	be := newTestBackend(t, fake)

	reply, err := be.Invoke(context.Background(), core.AgentHandle{ID: "asst_1"}, []core.Message{core.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestBackend_InvokeFailedRun(t *testing.T) {
	fake := &fakeAssistants{runStatus: "failed"}
	be := newTestBackend(t, fake)

	_, err := be.Invoke(context.Background(), core.AgentHandle{ID: "asst_1", DisplayName: "planner"}, []core.Message{core.NewUserMessage("hi")})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackend)
	assert.Contains(t, err.Error(), "exploded")
	assert.Contains(t, fake.Requests(), "delete thread_1")
}

func TestThreadMessages(t *testing.T) {
	msgs := ThreadMessages([]core.Message{
		core.NewUserMessage("hi"),
		core.NewAgentMessage("a", " "),
		core.NewSystemMessage("notice"),
		core.NewAgentMessage("a", "hello"),
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content.OfString.Value)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "hello", msgs[1].Content.OfString.Value)
}

func TestReplyText(t *testing.T) {
	var messages []openai.Message
	require.NoError(t, json.Unmarshal([]byte(`[
		{"role":"user","content":[{"type":"text","text":{"value":"question"}}]},
		{"role":"assistant","content":[{"type":"text","text":{"value":"first"}},{"type":"image_file","image_file":{"file_id":"f"}}]},
		{"role":"assistant","content":[{"type":"text","text":{"value":"second"}}]}
	]`), &messages))

	assert.Equal(t, "first\nsecond", ReplyText(messages))
	assert.Empty(t, ReplyText(nil))
}

func TestBackend_Info(t *testing.T) {
	be := NewBackendFromClient(nil)
	assert.Equal(t, "openai", be.Info().Provider)

	az := NewAzureBackend("https://example.openai.azure.com", "key", "")
	assert.Equal(t, "azure", az.Info().Provider)
}
