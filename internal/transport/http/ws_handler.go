package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"compquiz-service/internal/app"
	"compquiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// AnonIDProvider hands out stable anonymous identifiers for participants
// without a signed-in user id.
type AnonIDProvider interface {
	GetOrCreate(ctx context.Context, deviceKey string) (string, error)
}

// WSHandler exposes the interactive quiz session over a websocket. One
// connection drives at most one live session at a time; input is disabled
// server-side while answer feedback is pending, so repeated answers for the
// same question are dropped.
type WSHandler struct {
	service       *app.QuizService
	anonIDs       AnonIDProvider
	feedbackDelay time.Duration
	advanceDelay  time.Duration
	upgrader      websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, anonIDs AnonIDProvider, feedbackDelay, advanceDelay time.Duration) *WSHandler {
	return &WSHandler{
		service:       service,
		anonIDs:       anonIDs,
		feedbackDelay: feedbackDelay,
		advanceDelay:  advanceDelay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Subject string `json:"subject"`
}

type answerPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type subjectsPayload struct {
	Subjects []string `json:"subjects"`
}

type answerView struct {
	Text string `json:"text"`
}

type questionPayload struct {
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Subject  string       `json:"subject"`
	Prompt   string       `json:"prompt"`
	ImageURL string       `json:"imageUrl,omitempty"`
	Answers  []answerView `json:"answers"`
}

type completedPayload struct {
	Score     int  `json:"score"`
	Total     int  `json:"total"`
	Percent   int  `json:"percent"`
	Seconds   int  `json:"seconds"`
	Submitted bool `json:"submitted"`
}

// ServeWS upgrades the request and drives the session protocol: the client
// asks for "subjects" or sends "start"; the server pushes "question",
// answers come back as "answer" and produce "feedback", then the next
// question or "completed". "retry" re-attempts a failed result submission.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	routeID := r.URL.Query().Get("routeId")
	userID := r.URL.Query().Get("userId")
	deviceID := r.URL.Query().Get("deviceId")
	if routeID == "" || (userID == "" && deviceID == "") {
		http.Error(w, "missing routeId and one of userId or deviceId", http.StatusBadRequest)
		return
	}

	participantID := userID
	if participantID == "" {
		var err error
		participantID, err = h.anonIDs.GetOrCreate(r.Context(), deviceID)
		if err != nil {
			log.Printf("anon id for device %s: %v", deviceID, err)
			http.Error(w, "identity unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closed := make(chan struct{})
	writerDone := make(chan struct{})
	var advances sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var run *app.QuizRun

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "subjects":
			subjects, err := h.service.AvailableSubjects(r.Context(), routeID, participantID)
			if err != nil {
				h.sendError(send, closed, err)
				continue
			}
			h.send(send, closed, outboundMessage[any]{Type: "subjects", Payload: subjectsPayload{Subjects: subjects}})
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					h.send(send, closed, errorMessage("badRequest", "invalid start payload"))
					continue
				}
			}
			if run != nil && run.Session.State() != app.StateSubmitted {
				run.Session.Close()
			}
			newRun, err := h.service.StartQuiz(r.Context(), routeID, participantID, payload.Subject)
			if err != nil {
				h.sendError(send, closed, err)
				continue
			}
			run = newRun
			h.sendQuestion(send, closed, run)
		case "answer":
			if run == nil {
				h.send(send, closed, errorMessage("badRequest", "no active session"))
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.send(send, closed, errorMessage("badRequest", "invalid answer payload"))
				continue
			}
			feedback, err := run.Session.Answer(payload.Index)
			if err != nil {
				if errors.Is(err, domain.ErrNotAcceptingAnswers) {
					// Input disabled while feedback is pending; drop it.
					continue
				}
				h.sendError(send, closed, err)
				continue
			}
			h.send(send, closed, outboundMessage[any]{Type: "feedback", Payload: feedback})
			h.scheduleAdvance(r.Context(), run, send, closed, &advances)
		case "retry":
			if run == nil || run.Session.State() == app.StateSubmitted {
				h.send(send, closed, errorMessage("badRequest", "nothing to retry"))
				continue
			}
			h.complete(r.Context(), run, send, closed)
		default:
			h.send(send, closed, errorMessage("badRequest", "unsupported message type"))
		}
	}

	close(closed)
	if run != nil {
		run.Session.Close()
	}
	advances.Wait()
	close(send)
	<-writerDone
}

// scheduleAdvance waits out the feedback display delay plus the transition
// buffer, then advances the session and pushes the next question or the
// completion result.
func (h *WSHandler) scheduleAdvance(ctx context.Context, run *app.QuizRun, send chan outboundMessage[any], closed chan struct{}, advances *sync.WaitGroup) {
	advances.Add(1)
	go func() {
		defer advances.Done()
		select {
		case <-time.After(h.feedbackDelay + h.advanceDelay):
		case <-closed:
			return
		}
		completed, err := run.Session.Advance()
		if err != nil {
			return
		}
		if !completed {
			h.sendQuestion(send, closed, run)
			return
		}
		h.complete(ctx, run, send, closed)
	}()
}

func (h *WSHandler) complete(ctx context.Context, run *app.QuizRun, send chan outboundMessage[any], closed chan struct{}) {
	result, err := h.service.Complete(ctx, run)
	if err != nil {
		if errors.Is(err, domain.ErrNotCompleted) {
			h.send(send, closed, errorMessage("notCompleted", "quiz still in progress"))
			return
		}
		log.Printf("submit result for %s/%s: %v", run.Competition.ID, run.Subject, err)
		h.send(send, closed, errorMessage("submissionFailed", "result could not be saved; retry to resubmit"))
	}
	h.send(send, closed, outboundMessage[any]{Type: "completed", Payload: completedPayload{
		Score:     result.Score,
		Total:     result.Total,
		Percent:   result.Percent,
		Seconds:   result.Seconds,
		Submitted: run.Session.Submitted(),
	}})
}

func (h *WSHandler) sendQuestion(send chan outboundMessage[any], closed chan struct{}, run *app.QuizRun) {
	question, index, ok := run.Session.Current()
	if !ok {
		return
	}
	answers := make([]answerView, 0, len(question.Answers))
	for _, a := range question.Answers {
		// Correctness flags stay server-side.
		answers = append(answers, answerView{Text: a.Text})
	}
	h.send(send, closed, outboundMessage[any]{Type: "question", Payload: questionPayload{
		Index:    index,
		Total:    run.Session.Total(),
		Subject:  run.Subject,
		Prompt:   question.Prompt,
		ImageURL: question.ImageURL,
		Answers:  answers,
	}})
}

func (h *WSHandler) sendError(send chan outboundMessage[any], closed chan struct{}, err error) {
	h.send(send, closed, errorMessage(errorCode(err), err.Error()))
}

func (h *WSHandler) send(send chan outboundMessage[any], closed chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-closed:
	}
}

func errorMessage(code, message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: message}}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnresolved):
		return "unresolved"
	case errors.Is(err, domain.ErrNotEnrolled):
		return "notEnrolled"
	case errors.Is(err, domain.ErrNoContent):
		return "noContent"
	case errors.Is(err, domain.ErrCompetitionClosed):
		return "competitionClosed"
	case errors.Is(err, domain.ErrSubjectsExhausted):
		return "allSubjectsCompleted"
	case errors.Is(err, domain.ErrAnswerIndexOutOfRange):
		return "invalidAnswerIndex"
	default:
		return "internal"
	}
}
