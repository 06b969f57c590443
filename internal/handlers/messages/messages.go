package messages

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/dto"
	"github.com/GlebRadaev/courierstats/pkg/auth"
	"github.com/GlebRadaev/courierstats/pkg/utils"
)

//go:generate mockgen -source=messages.go -destination=mock_messages.go -package=messages

type Service interface {
	Ingest(ctx context.Context, msg domain.InboundMessage) (bool, error)
}

type MessageHandler struct {
	deliveryService Service
	now             func() time.Time
}

func New(deliveryService Service) *MessageHandler {
	return &MessageHandler{
		deliveryService: deliveryService,
		now:             time.Now,
	}
}

// PostMessage accepts a chat message relayed by a non-telegram transport.
// It answers 202 when the message was a delivery report and 204 otherwise.
func (h *MessageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.MessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Text == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}
	if req.MessageID == "" {
		req.MessageID = uuid.NewString()
	}

	source, _ := r.Context().Value(auth.SourceKey).(string)
	zap.L().Debug("relayed message", zap.String("source", source), zap.String("messageID", req.MessageID))

	recorded, err := h.deliveryService.Ingest(r.Context(), domain.InboundMessage{
		ChatID:     req.ChatID,
		UserID:     req.UserID,
		UserHandle: req.UserHandle,
		MessageID:  req.MessageID,
		Text:       req.Text,
		ReceivedAt: h.now(),
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !recorded {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, utils.Response{Message: "delivery accepted"})
}
