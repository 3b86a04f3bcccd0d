package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ace30/insightmate/internal/logging"
	"github.com/Ace30/insightmate/internal/store"
)

// Reply is what the agent returns for one message.
type Reply struct {
	Response    string   `json:"response"`
	SessionID   string   `json:"session_id"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
	QueryType   Intent   `json:"query_type"`
}

// Agent answers messages and records each exchange in a session log.
type Agent struct {
	sessions store.Sessions
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewAgent returns an agent that logs exchanges to sessions. log may be nil.
func NewAgent(sessions store.Sessions, log *slog.Logger) *Agent {
	if log == nil {
		log = logging.Default()
	}
	return &Agent{
		sessions: sessions,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Process classifies message, answers it from c and appends the exchange to the
// session. An empty sessionID starts a new session with a generated id.
func (a *Agent) Process(ctx context.Context, message, sessionID string, c *Context) (Reply, error) {
	if sessionID == "" {
		sessionID = a.newID()
	}
	log := a.log.With("session_id", sessionID)

	q := Classify(message)
	resp := Respond(q, c)
	log.Debug("classified message", "intent", q.Intent, "confidence", q.Confidence)

	err := a.sessions.Append(ctx, sessionID, store.Message{
		Timestamp: a.now(),
		Input:     message,
		Output:    resp.Text,
		Intent:    string(q.Intent),
	})
	if err != nil {
		log.Error("could not record message", "error", err)
		return Reply{
			Response:    "I'm sorry, I encountered an error processing your request. Please try rephrasing your question.",
			SessionID:   sessionID,
			Suggestions: []string{},
			QueryType:   Failed,
		}, fmt.Errorf("recording message: %w", err)
	}

	return Reply{
		Response:    resp.Text,
		SessionID:   sessionID,
		Suggestions: resp.Suggestions,
		Confidence:  resp.Confidence,
		QueryType:   q.Intent,
	}, nil
}

// History returns the messages of a session.
func (a *Agent) History(ctx context.Context, sessionID string) ([]store.Message, error) {
	return a.sessions.History(ctx, sessionID)
}

// Clear deletes a session.
func (a *Agent) Clear(ctx context.Context, sessionID string) error {
	return a.sessions.Clear(ctx, sessionID)
}
