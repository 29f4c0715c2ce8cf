package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pemistahl/lingua-go"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/repos"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

// AppendMessageInput carries one message to append. ConversationID nil means
// start a new conversation.
type AppendMessageInput struct {
	UserID         uuid.UUID
	ConversationID *uuid.UUID
	Role           types.MessageRole
	Content        string
	ContentType    types.ContentType
	VoiceDuration  *int
	LanguageHint   string
}

type ConversationService interface {
	AppendMessage(ctx context.Context, in AppendMessageInput) (*types.Conversation, *types.Message, error)
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int) ([]*types.Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	Archive(ctx context.Context, userID, conversationID uuid.UUID) error
}

type conversationService struct {
	db       *gorm.DB
	log      *logger.Logger
	convRepo repos.ConversationRepo
	msgRepo  repos.MessageRepo
	detector lingua.LanguageDetector
}

func NewConversationService(db *gorm.DB, baseLog *logger.Logger, convRepo repos.ConversationRepo, msgRepo repos.MessageRepo) ConversationService {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Hindi, lingua.Bengali, lingua.Tamil, lingua.Telugu, lingua.Marathi).
		Build()
	return &conversationService{
		db:       db,
		log:      baseLog.With("service", "ConversationService"),
		convRepo: convRepo,
		msgRepo:  msgRepo,
		detector: detector,
	}
}

func (s *conversationService) AppendMessage(ctx context.Context, in AppendMessageInput) (*types.Conversation, *types.Message, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, nil, apierr.Validation("message content is required")
	}
	if !in.Role.Valid() {
		return nil, nil, apierr.Validation("invalid message role")
	}
	if in.ContentType == "" {
		in.ContentType = types.ContentText
	}
	if !in.ContentType.Valid() {
		return nil, nil, apierr.Validation("invalid message content type")
	}

	now := time.Now().UTC()
	var conv *types.Conversation
	var msg *types.Message

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if in.ConversationID != nil {
			conv, err = s.convRepo.GetByID(ctx, tx, *in.ConversationID)
			if err != nil {
				return err
			}
			if conv == nil || conv.UserID != in.UserID {
				return apierr.Ownership("conversation not found")
			}
			if conv.Status == types.ConversationDeleted {
				return apierr.Ownership("conversation not found")
			}
		} else {
			conv = &types.Conversation{
				ID:            uuid.New(),
				UserID:        in.UserID,
				Title:         titleFromContent(in.Content),
				Language:      s.resolveLanguage(in.LanguageHint, in.Content),
				Status:        types.ConversationActive,
				StartedAt:     now,
				LastMessageAt: now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err = s.convRepo.Create(ctx, tx, conv); err != nil {
				return err
			}
		}

		msg = &types.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           in.Role,
			Content:        in.Content,
			ContentType:    in.ContentType,
			VoiceDuration:  in.VoiceDuration,
			CreatedAt:      now,
		}
		if err = s.msgRepo.Create(ctx, tx, msg); err != nil {
			return err
		}
		if err = s.convRepo.BumpMessageStats(ctx, tx, conv.ID, now); err != nil {
			return err
		}
		conv.MessageCount++
		conv.LastMessageAt = now
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return conv, msg, nil
}

func (s *conversationService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, nil, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil || conv.UserID != userID || conv.Status == types.ConversationDeleted {
		return nil, apierr.Ownership("conversation not found")
	}
	return conv, nil
}

func (s *conversationService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.msgRepo.ListByConversation(ctx, nil, conversationID, limit)
}

func (s *conversationService) ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	return s.convRepo.ListByUser(ctx, nil, userID, limit)
}

func (s *conversationService) Archive(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.convRepo.UpdateStatus(ctx, nil, conversationID, types.ConversationArchived)
}

// resolveLanguage trusts an explicit hint, otherwise runs detection over the
// first message. Falls back to English when detection is unsure.
func (s *conversationService) resolveLanguage(hint, content string) string {
	if hint = strings.TrimSpace(strings.ToLower(hint)); hint != "" {
		return hint
	}
	if lang, ok := s.detector.DetectLanguageOf(content); ok {
		return strings.ToLower(lang.IsoCode639_1().String())
	}
	return "en"
}

func titleFromContent(content string) string {
	title := strings.TrimSpace(content)
	runes := []rune(title)
	if len(runes) > 60 {
		title = string(runes[:60])
	}
	return title
}
