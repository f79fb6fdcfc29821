package textservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const (
	// KeywordModeMaxWords is the word count below which input is treated as a query.
	KeywordModeMaxWords = 50

	instructionSystemPrompt = "You are an AI assistant that follows instructions precisely."
	storySystemPrompt       = "You are a storytelling assistant that turns news summaries into an engaging story or narrative.\n" +
		"Use a narrative tone, connect themes, and present it as a brief 3-paragraph story."
)

// Mode selects the extraction prompt.
type Mode string

const (
	ModeKeyword Mode = "keyword"
	ModeEvent   Mode = "event"
)

// ModeFor picks keyword mode for short queries and event mode for article-length text.
func ModeFor(text string) Mode {
	if len(strings.Fields(text)) < KeywordModeMaxWords {
		return ModeKeyword
	}
	return ModeEvent
}

// Service implements ports.TextService on top of a chat completion client.
type Service struct {
	chat           ports.ChatClient
	logger         *slog.Logger
	extractOptions ports.CompletionOptions
	storyOptions   ports.CompletionOptions
}

var _ ports.TextService = (*Service)(nil)

// New wires the chat client; logger may be nil.
func New(chat ports.ChatClient, log *slog.Logger) *Service {
	return &Service{
		chat:           chat,
		logger:         log,
		extractOptions: ports.CompletionOptions{Temperature: 0.7, MaxTokens: 800},
		storyOptions:   ports.CompletionOptions{Temperature: 0.7, MaxTokens: 800},
	}
}

// ExtractEvents returns comma-separated keywords for short input, or 3-5 structured event lines otherwise.
func (s *Service) ExtractEvents(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	mode := ModeFor(text)
	var instruction string
	switch mode {
	case ModeKeyword:
		instruction = "Generate 3 to 5 keywords or phrases that capture the core topic of the following query. " +
			"Return them as a comma-separated list.\n\n" +
			"Query: " + text
	default:
		instruction = "Extract 3 to 5 key events from the following news article. Each event should follow this format:\n" +
			"[Actor] performed [Action] on [Date] at [Location], due to [Reason].\n\n" +
			"Article: " + text
	}

	s.debug("extract events", "mode", mode, "words", len(strings.Fields(text)))
	reply, err := s.chat.Complete(ctx, []ports.ChatMessage{
		{Role: "system", Content: instructionSystemPrompt},
		{Role: "user", Content: instruction},
	}, s.extractOptions)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", mode, err)
	}
	return strings.TrimSpace(reply), nil
}

// ComposeStory turns event lines into a short narrative; no events yields domain.DefaultNarrative without a model call.
func (s *Service) ComposeStory(ctx context.Context, events []string) (string, error) {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			lines = append(lines, "- "+e)
		}
	}
	if len(lines) == 0 {
		return domain.DefaultNarrative, nil
	}

	input := "Here are recent news developments:\n\n" + strings.Join(lines, "\n")
	s.debug("compose story", "events", len(lines))
	reply, err := s.chat.Complete(ctx, []ports.ChatMessage{
		{Role: "system", Content: storySystemPrompt},
		{Role: "user", Content: input},
	}, s.storyOptions)
	if err != nil {
		return "", fmt.Errorf("compose story: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("compose story: empty reply")
	}
	return reply, nil
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
