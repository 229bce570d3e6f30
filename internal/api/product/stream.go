package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
)

const (
	replayBatch       = 500
	keepAliveInterval = 15 * time.Second
)

// StreamEventsHandler lida com a requisição GET /v1/events/stream (Server-Sent Events).
// Com Last-Event-ID (ou ?after=) o log durável é reenviado antes dos eventos ao vivo.
// Os eventos saem sempre em ordem de sequence, sem buracos nem repetições.
// @Summary Assina os eventos do registro
// @Tags events
// @Produce text/event-stream
// @Param after query int false "Sequência a partir da qual reenviar"
// @Success 200 {string} string "Fluxo SSE de domain.ProductEvent"
// @Router /events/stream [get]
func (h *Handler) StreamEventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewInternalError("Streaming não suportado.", nil), http.StatusOK)
		return
	}

	after, err := queryInt(r, "after", -1)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	if lastID := r.Header.Get("Last-Event-ID"); lastID != "" {
		if v, err := strconv.ParseInt(lastID, 10, 64); err == nil {
			after = v
		}
	}

	ctx := r.Context()
	// Assina antes do replay para não perder eventos confirmados no meio.
	live := h.Service.Subscribe(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	last := after
	if after >= 0 {
		if last, err = h.catchUp(ctx, w, flusher, last); err != nil {
			return
		}
	}

	h.Logger.Debug("Assinante SSE conectado.", map[string]interface{}{"after": after})

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-live:
			if !ok {
				return
			}
			if last < 0 {
				// Sem cursor: o fluxo começa no primeiro evento ao vivo.
				last = ev.Sequence - 1
			}
			if ev.Sequence <= last {
				continue
			}
			if ev.Sequence == last+1 {
				if err := writeEvent(w, ev); err != nil {
					return
				}
				last = ev.Sequence
				flusher.Flush()
				continue
			}
			// Buraco na sequência (evento descartado pelo broker ou publicado fora de ordem):
			// o evento ao vivo só acorda o assinante e o log durável é lido em ordem.
			if last, err = h.catchUp(ctx, w, flusher, last); err != nil {
				return
			}
		}
	}
}

// catchUp envia em ordem os eventos do log com sequence maior que last
// e devolve a sequence do último evento enviado.
func (h *Handler) catchUp(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, last int64) (int64, error) {
	for {
		events, err := h.Service.ListEvents(ctx, last, replayBatch)
		if err != nil {
			h.Logger.Error("Falha ao ler o log de eventos para o fluxo SSE.", err)
			return last, err
		}
		for _, ev := range events {
			if err := writeEvent(w, ev); err != nil {
				return last, err
			}
			last = ev.Sequence
		}
		flusher.Flush()
		if len(events) < replayBatch {
			return last, nil
		}
	}
}

func writeEvent(w http.ResponseWriter, ev domain.ProductEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Sequence, ev.Type, data)
	return err
}
