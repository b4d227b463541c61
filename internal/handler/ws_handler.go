package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/skillstage/skillstage-backend/internal/event"
	"github.com/skillstage/skillstage-backend/internal/middleware"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/service"
	ws "github.com/skillstage/skillstage-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams one test session over WebSocket: autosave and submit go
// through the same service the HTTP endpoints use, and graded results pushed
// by any trigger path arrive over the session's event channel.
type WSHandler struct {
	sessionService *service.SessionService
	notifier       *event.SessionNotifier
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, notifier *event.SessionNotifier, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		notifier:       notifier,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/tests/:session_id/stream
// Upgrades to WebSocket for live autosave, submit and graded notifications.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	// Ownership check before the upgrade; the view itself is discarded.
	if _, err := h.sessionService.GetForOwner(c.Request.Context(), claims.UserID, sessionID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to this session"})
		return
	}

	upgraded, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(upgraded)
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID.String()).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Candidate connected")

	// Forward graded events published by any finalize path, including the
	// deadline worker on another instance.
	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.forwardGradedEvents(subCtx, conn, sessionID, wsLog)

	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			conn.WriteError("invalid message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, claims.UserID, sessionID, raw, wsLog)
		case ws.ActionSubmit:
			h.handleSubmit(conn, claims.UserID, sessionID, raw, wsLog)
		case ws.ActionState:
			h.handleState(conn, claims.UserID, sessionID, wsLog)
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(envelope.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(conn *ws.Conn, userID, sessionID uuid.UUID, raw []byte, wsLog zerolog.Logger) {
	var req ws.AutosaveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		conn.WriteError("invalid autosave payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.sessionService.RecordAnswers(ctx, userID, sessionID, req.Answers); err != nil {
		wsLog.Debug().Err(err).Msg("Autosave rejected")
		conn.WriteError(err.Error())
		return
	}

	conn.WriteTyped(ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) handleState(conn *ws.Conn, userID, sessionID uuid.UUID, wsLog zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	view, err := h.sessionService.GetForOwner(ctx, userID, sessionID)
	if err != nil {
		wsLog.Debug().Err(err).Msg("State request rejected")
		conn.WriteError(err.Error())
		return
	}

	conn.WriteTyped(ws.StateResponse{
		Event:            ws.EventState,
		Status:           string(view.Session.Status),
		RemainingSeconds: view.RemainingSeconds,
	})
}

func (h *WSHandler) handleSubmit(conn *ws.Conn, userID, sessionID uuid.UUID, raw []byte, wsLog zerolog.Logger) {
	var req ws.SubmitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		conn.WriteError("invalid submit payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	outcome, err := h.sessionService.Submit(ctx, userID, sessionID, &model.SubmitTestRequest{Answers: req.Answers})
	if err != nil {
		wsLog.Error().Err(err).Msg("WebSocket submit failed")
		conn.WriteError(err.Error())
		return
	}

	conn.WriteTyped(ws.GradedResponse{
		Event:        ws.EventGraded,
		SessionID:    outcome.SessionID.String(),
		ScorePercent: outcome.ScorePercent,
		AwardedLevel: outcome.AwardedLevel,
		Advance:      outcome.AdvanceToNextStep,
	})
}

// forwardGradedEvents relays the session's PubSub channel onto the socket
// until the subscription or the connection dies.
func (h *WSHandler) forwardGradedEvents(ctx context.Context, conn *ws.Conn, sessionID uuid.UUID, wsLog zerolog.Logger) {
	sub := h.notifier.Subscribe(ctx, sessionID)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt event.SessionGradedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed session event")
				continue
			}
			conn.WriteTyped(ws.GradedResponse{
				Event:        ws.EventGraded,
				SessionID:    evt.SessionID.String(),
				ScorePercent: evt.ScorePercent,
				AwardedLevel: evt.AwardedLevel,
				Advance:      evt.Advance,
			})
		}
	}
}
