package simulator

import (
	"encoding/json"
	"net/http"

	"github.com/kleeedolinux/datesync/model"
	"github.com/kleeedolinux/datesync/socket"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"
)

// FrameApproveMessage is sent by a client to approve a generated message for
// delivery.
const FrameApproveMessage = "approve_message"

// Backend ties a Hub and a Generator into a stand-in for the automation
// backend.
type Backend struct {
	Hub       *Hub
	Generator *Generator
}

func NewBackend(hub *Hub, gen *Generator) *Backend {
	b := &Backend{Hub: hub, Generator: gen}

	hub.OnJoin(func(peerID string) {
		hub.Send(peerID, socket.TypeSystemStatusChanged, model.SystemStatus{Status: "running"})
	})
	hub.HandleFunc(FrameApproveMessage, b.approveMessage)

	return b
}

func (b *Backend) approveMessage(peerID string, frame json.RawMessage) {
	f := gjson.ParseBytes(frame)
	delivery := model.MessageDelivery{
		MessageID:      f.Get("message_id").String(),
		ConversationID: f.Get("conversation_id").String(),
		ProfileName:    f.Get("profile_name").String(),
	}

	if delivery.MessageID == "" {
		b.Hub.Send(peerID, socket.TypeMessageSentFailed, model.MessageDelivery{
			ConversationID: delivery.ConversationID,
			ProfileName:    delivery.ProfileName,
			Error:          "missing message_id",
		})
		return
	}

	ev := b.Generator.MessageSent(delivery)
	if err := b.Hub.Broadcast(ev.Type, ev.Data); err != nil {
		b.Hub.logger.Warn().Err(err).Msg("failed to broadcast delivery")
	}
}

// Router serves the realtime endpoint and the read-only REST surface.
func (b *Backend) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/ws", b.Hub)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	api.HandleFunc("/system/status", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, model.SystemStatus{Status: "running"})
	}).Methods(http.MethodGet)
	api.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, b.Generator.Metrics())
	}).Methods(http.MethodGet)
	api.HandleFunc("/conversations", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, Conversations())
	}).Methods(http.MethodGet)

	return r
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 300,
		"data":    data,
	})
}
