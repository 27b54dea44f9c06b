package websocket

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"virtual-doctor-be/internal/dto"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/pkg/intake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	err     error
	lastReq *dto.SendMessageRequest
}

func (s *stubService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SendMessageResponse{Response: "noted", SessionId: req.SessionId}, nil
}

func (s *stubService) GetSession(ctx context.Context, sessionId string) (*dto.SessionResponse, error) {
	return nil, nil
}

func (s *stubService) DeleteSession(ctx context.Context, sessionId string) error {
	return nil
}

func TestHandleFrame(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		err      error
		wantCode int
	}{
		{name: "ok", frame: `{"sessionId":"s1","text":"hi"}`},
		{name: "malformed", frame: `not json`, wantCode: http.StatusBadRequest},
		{name: "missing text", frame: `{"sessionId":"s1"}`, wantCode: http.StatusBadRequest},
		{name: "upstream down", frame: `{"sessionId":"s1","text":"hi"}`, err: intake.ErrUpstreamExhausted, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubService{err: tt.err}, logger.NewNopLogger())

			out := h.HandleFrame(context.Background(), "", []byte(tt.frame))

			if tt.wantCode == 0 {
				res, ok := out.(*dto.SendMessageResponse)
				require.True(t, ok)
				assert.Equal(t, "noted", res.Response)
				return
			}
			frame, ok := out.(ErrorFrame)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, frame.Code)
			assert.NotEmpty(t, frame.Error)
		})
	}
}

func TestHandleFrameUsesAuthenticatedUser(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, logger.NewNopLogger())

	h.HandleFrame(context.Background(), "patient-7", []byte(`{"sessionId":"s1","userId":"other","text":"hi"}`))

	assert.Equal(t, "patient-7", svc.lastReq.UserId)
}

type blockingService struct {
	stubService
	started chan struct{}
	seen    chan error
}

func (s *blockingService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	close(s.started)
	<-ctx.Done()
	s.seen <- ctx.Err()
	return nil, ctx.Err()
}

type fakeConn struct {
	mu         sync.Mutex
	frames     [][]byte
	disconnect chan struct{}
	written    []interface{}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	if len(c.frames) > 0 {
		raw := c.frames[0]
		c.frames = c.frames[1:]
		c.mu.Unlock()
		return 1, raw, nil
	}
	c.mu.Unlock()
	<-c.disconnect
	return 0, nil, io.EOF
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v)
	return nil
}

func TestRunCancelsTurnWhenClientDisconnects(t *testing.T) {
	svc := &blockingService{started: make(chan struct{}), seen: make(chan error, 1)}
	conn := &fakeConn{
		frames:     [][]byte{[]byte(`{"sessionId":"s1","text":"hi"}`)},
		disconnect: make(chan struct{}),
	}
	h := NewHandler(svc, logger.NewNopLogger())

	done := make(chan struct{})
	go func() {
		h.run(conn, "")
		close(done)
	}()

	select {
	case <-svc.started:
	case <-time.After(time.Second):
		t.Fatal("turn never started")
	}
	close(conn.disconnect)

	select {
	case err := <-svc.seen:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("turn was not cancelled after disconnect")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return")
	}
}

func TestRunAnswersFramesInOrder(t *testing.T) {
	conn := &fakeConn{
		frames: [][]byte{
			[]byte(`{"sessionId":"s1","text":"first"}`),
			[]byte(`not json`),
		},
		disconnect: make(chan struct{}),
	}
	close(conn.disconnect)
	h := NewHandler(&stubService{}, logger.NewNopLogger())

	h.run(conn, "")

	require.Len(t, conn.written, 2)
	_, ok := conn.written[0].(*dto.SendMessageResponse)
	assert.True(t, ok)
	frame, ok := conn.written[1].(ErrorFrame)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, frame.Code)
}
