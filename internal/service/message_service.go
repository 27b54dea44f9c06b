package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"virtual-doctor-be/internal/dto"
	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/mapper"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/pkg/intake"
	"virtual-doctor-be/pkg/patient"
	"virtual-doctor-be/pkg/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pipelineModule = "MessagePipeline"

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrSessionNotFound = errors.New("session not found")
)

// TurnState is the stage a message turn is in.
type TurnState string

const (
	StateLoading    TurnState = "LOADING"
	StateExtracting TurnState = "EXTRACTING"
	StateMerging    TurnState = "MERGING"
	StatePersisting TurnState = "PERSISTING"
	StateDone       TurnState = "DONE"
	StateFailed     TurnState = "FAILED"
)

type IMessageService interface {
	SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetSession(ctx context.Context, sessionId string) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

type messageService struct {
	store     *session.Store
	extractor intake.IExtractor
	publisher IPublisherService
	logger    logger.ILogger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewMessageService(
	store *session.Store,
	extractor intake.IExtractor,
	publisher IPublisherService,
	logger logger.ILogger,
) IMessageService {
	return &messageService{
		store:     store,
		extractor: extractor,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("virtual-doctor-be/message-pipeline"),
		now:       time.Now,
	}
}

// turn tracks one pass through the pipeline for logging and tracing.
type turn struct {
	logger    logger.ILogger
	span      trace.Span
	sessionId string
	state     TurnState
	startedAt time.Time
}

func (t *turn) enter(next TurnState) {
	t.logger.Debug(pipelineModule, "Turn state changed", map[string]interface{}{
		"session_id": t.sessionId,
		"from":       string(t.state),
		"to":         string(next),
	})
	t.span.AddEvent(string(next))
	t.state = next
}

func (t *turn) fail(err error) error {
	details := map[string]interface{}{
		"session_id":  t.sessionId,
		"state":       string(t.state),
		"elapsed_ms":  time.Since(t.startedAt).Milliseconds(),
		"error":       err.Error(),
		"error_class": classify(err),
	}
	if errors.Is(err, ErrInvalidRequest) {
		t.logger.Warn(pipelineModule, "Turn rejected", details)
	} else {
		t.logger.Error(pipelineModule, "Turn failed", details)
	}
	t.span.RecordError(err)
	t.span.SetStatus(codes.Error, err.Error())
	t.state = StateFailed
	return err
}

func classify(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, intake.ErrUpstreamExhausted):
		return "upstream_exhausted"
	case errors.Is(err, intake.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, intake.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, session.ErrNotFound):
		return "not_found"
	case errors.Is(err, session.ErrConcurrentUpdate):
		return "concurrent_update"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

// SendMessage runs one consultation turn: load the session, ask the LLM, merge
// the extracted facts and persist both messages with the new context at once.
// Nothing is written unless every step succeeds.
func (s *messageService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "MessagePipeline.SendMessage")
	defer span.End()

	receivedAt := s.now()
	t := &turn{logger: s.logger, span: span, sessionId: req.SessionId, startedAt: receivedAt}
	t.enter(StateLoading)

	if strings.TrimSpace(req.SessionId) == "" {
		return nil, t.fail(fmt.Errorf("%w: sessionId is required", ErrInvalidRequest))
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, t.fail(fmt.Errorf("%w: text is required", ErrInvalidRequest))
	}
	userId := strings.TrimSpace(req.UserId)
	if userId == "" {
		userId = entity.GuestUserId
	}
	span.SetAttributes(
		attribute.String("session.id", req.SessionId),
		attribute.String("user.id", userId),
	)

	release, err := s.store.Acquire(ctx, req.SessionId)
	if err != nil {
		return nil, t.fail(err)
	}
	defer release()

	conversation, err := s.store.GetOrCreate(ctx, req.SessionId, userId)
	if err != nil {
		return nil, t.fail(err)
	}

	t.enter(StateExtracting)
	extracted, err := s.extractor.Extract(ctx, req.Text, conversation.PatientContext)
	if err != nil {
		return nil, t.fail(err)
	}

	t.enter(StateMerging)
	merged := patient.Merge(conversation.PatientContext, extracted.ExtractedInfo)

	t.enter(StatePersisting)
	messages := []entity.Message{
		{Sender: entity.SenderUser, Content: req.Text, Timestamp: receivedAt},
		{Sender: entity.SenderAssistant, Content: extracted.ReplyText, Timestamp: s.now()},
	}
	saved, err := s.store.AppendAndSave(ctx, conversation, messages, merged)
	if err != nil {
		return nil, t.fail(err)
	}

	t.enter(StateDone)
	s.logger.Info(pipelineModule, "Turn completed", map[string]interface{}{
		"session_id":    saved.SessionId,
		"revision":      saved.Revision,
		"message_count": len(saved.Messages),
		"symptom_count": len(saved.PatientContext.Symptoms),
		"elapsed_ms":    time.Since(receivedAt).Milliseconds(),
	})
	s.publishTurnCompleted(ctx, saved)

	return &dto.SendMessageResponse{
		Response:       extracted.ReplyText,
		PatientContext: mapper.PatientContextToDTO(saved.PatientContext),
		SessionId:      saved.SessionId,
	}, nil
}

func (s *messageService) publishTurnCompleted(ctx context.Context, c *entity.Conversation) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishTurnCompleted(ctx, dto.TurnCompletedMessage{
		SessionId:    c.SessionId,
		UserId:       c.UserId,
		Revision:     c.Revision,
		MessageCount: len(c.Messages),
		SymptomCount: len(c.PatientContext.Symptoms),
		OccurredAt:   s.now(),
	})
	if err != nil {
		s.logger.Warn(pipelineModule, "Failed to publish turn event", map[string]interface{}{
			"session_id": c.SessionId,
			"error":      err.Error(),
		})
	}
}

func (s *messageService) GetSession(ctx context.Context, sessionId string) (*dto.SessionResponse, error) {
	if strings.TrimSpace(sessionId) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidRequest)
	}
	conversation, err := s.store.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrSessionNotFound
	}
	return mapper.ConversationToSessionResponse(conversation), nil
}

func (s *messageService) DeleteSession(ctx context.Context, sessionId string) error {
	if strings.TrimSpace(sessionId) == "" {
		return fmt.Errorf("%w: sessionId is required", ErrInvalidRequest)
	}

	release, err := s.store.Acquire(ctx, sessionId)
	if err != nil {
		return err
	}
	defer release()

	if err := s.store.Delete(ctx, sessionId); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	s.logger.Info(pipelineModule, "Session deleted", map[string]interface{}{"session_id": sessionId})
	return nil
}
