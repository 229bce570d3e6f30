package product_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/api/product"
	"marketplace/internal/domain"
	"marketplace/internal/pkg/logger"
)

// logService serve ListEvents a partir de um log em memória e entrega Subscribe
// pelo canal live. listed é fechado na primeira leitura do log.
type logService struct {
	product.ProductService

	mu       sync.Mutex
	log      []domain.ProductEvent
	live     chan domain.ProductEvent
	listed   chan struct{}
	listOnce sync.Once
}

func newLogService() *logService {
	return &logService{
		live:   make(chan domain.ProductEvent),
		listed: make(chan struct{}),
	}
}

func (s *logService) ListEvents(ctx context.Context, after int64, limit int) ([]domain.ProductEvent, error) {
	defer s.listOnce.Do(func() { close(s.listed) })
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.ProductEvent{}
	for _, ev := range s.log {
		if ev.Sequence > after && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *logService) Subscribe(ctx context.Context) <-chan domain.ProductEvent {
	return s.live
}

func (s *logService) commit(events ...domain.ProductEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, events...)
}

func event(seq int64) domain.ProductEvent {
	return domain.ProductEvent{
		EventID:    "e" + strconv.FormatInt(seq, 10),
		Sequence:   seq,
		Type:       domain.EventProductCreated,
		ProductID:  seq,
		Name:       "item",
		Price:      1,
		Owner:      "seller",
		OccurredAt: time.Now().UTC(),
	}
}

// streamIDs executa o handler até o canal live fechar e devolve os ids enviados, em ordem.
func streamIDs(t *testing.T, svc *logService, target string) []int64 {
	t.Helper()
	h := product.NewHandler(svc, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.StreamEventsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var ids []int64
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "id: "); ok {
			id, err := strconv.ParseInt(v, 10, 64)
			require.NoError(t, err)
			ids = append(ids, id)
		}
	}
	return ids
}

func TestStreamEvents_OutOfOrderLiveEventsFollowLogOrder(t *testing.T) {
	svc := newLogService()
	svc.commit(event(1))

	go func() {
		<-svc.listed
		svc.commit(event(2), event(3))
		svc.live <- event(3)
		svc.live <- event(2)
		close(svc.live)
	}()

	ids := streamIDs(t, svc, "/v1/events/stream?after=0")

	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestStreamEvents_DroppedLiveEventIsRecoveredFromLog(t *testing.T) {
	svc := newLogService()

	go func() {
		<-svc.listed
		svc.commit(event(1), event(2), event(3))
		// O broker descartou 1 e 2; só 3 chega ao assinante.
		svc.live <- event(3)
		close(svc.live)
	}()

	ids := streamIDs(t, svc, "/v1/events/stream?after=0")

	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestStreamEvents_LastEventIDResumesWithoutDuplicates(t *testing.T) {
	svc := newLogService()
	svc.commit(event(1), event(2))

	go func() {
		<-svc.listed
		svc.commit(event(3))
		svc.live <- event(2)
		svc.live <- event(3)
		close(svc.live)
	}()

	h := product.NewHandler(svc, logger.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/events/stream", nil)
	req.Header.Set("Last-Event-ID", "1")
	rec := httptest.NewRecorder()

	h.StreamEventsHandler(rec, req)

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "id: 2\n"))
	assert.Equal(t, 1, strings.Count(body, "id: 3\n"))
	assert.NotContains(t, body, "id: 1\n")
	assert.Less(t, strings.Index(body, "id: 2\n"), strings.Index(body, "id: 3\n"))
}

func TestStreamEvents_WithoutCursorStartsAtFirstLiveEvent(t *testing.T) {
	svc := newLogService()
	svc.commit(event(1), event(2), event(3), event(4))

	go func() {
		svc.live <- event(3)
		svc.live <- event(4)
		close(svc.live)
	}()

	ids := streamIDs(t, svc, "/v1/events/stream")

	assert.Equal(t, []int64{3, 4}, ids)
}
