// Package chatbot is the answering engine: it gates the question,
// builds the constrained prompt, makes the single completion call and
// records the exchange. It never returns an error to the caller — every
// failure becomes a user-facing string and is logged like any answer.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/assembler"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/config"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/events"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/llm"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/resolver"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/session"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// Fixed user-facing strings. These are part of the product surface and
// are matched by callers and tests; change them only deliberately.
const (
	MissingKeyMessage = "Please configure your Groq API key before using the assistant."

	RefusalMessage = "I can only answer questions related to the documents I have access to. Please ask me about the content of the provided documents."

	TooLargeMessage = "The request was too large. Please try asking a more specific question about a single document, or contact your administrator to optimize the document processing."

	ValidationFallbackMessage = "I'm having trouble processing your question. Please try rephrasing or ask about the documents I have access to."

	errorPrefix = "Sorry, I encountered an error while processing your request: "
)

// offTopicKeywords short-circuit questions that are obviously not about
// the documents. A heuristic gate: false positives and negatives are
// accepted.
var offTopicKeywords = []string{
	"weather", "cook", "recipe", "movie", "music", "sports",
	"general knowledge", "trivia", "personal", "private",
}

// hedgingPhrases mark responses the optional validation layer rejects.
var hedgingPhrases = []string{
	"i cannot", "i don't have", "i'm unable", "i don't know",
	"i'm not sure", "i cannot provide", "i don't have access",
}

const minResponseLength = 10

type Engine struct {
	resolver  *resolver.Resolver
	assembler *assembler.Assembler
	resources *store.ResourceStore
	chats     *store.ChatStore
	completer llm.Completer
	cfg       config.GroqConfig
	ctxOpts   assembler.Options
	log       *logger.Logger
}

func NewEngine(
	res *resolver.Resolver,
	asm *assembler.Assembler,
	resources *store.ResourceStore,
	chats *store.ChatStore,
	completer llm.Completer,
	groqCfg config.GroqConfig,
	ctxCfg config.ContextConfig,
) *Engine {
	return &Engine{
		resolver:  res,
		assembler: asm,
		resources: resources,
		chats:     chats,
		completer: completer,
		cfg:       groqCfg,
		ctxOpts: assembler.Options{
			MaxChars:  ctxCfg.MaxChars,
			PerDocCap: ctxCfg.PerDocCap,
			MaxDocs:   ctxCfg.MaxDocs,
			TopN:      ctxCfg.TopN,
		},
		log: logger.New("chatbot"),
	}
}

// Answer runs the full question pipeline for one message and returns
// the final user-facing string. Terminal outcomes (missing key,
// refusal, model failure) come back as strings too, and every outcome
// is appended to the chat log before returning.
func (e *Engine) Answer(ctx context.Context, sess *session.Session, message string, params llm.Params) string {
	response := e.answer(ctx, sess, message, params)

	if err := e.chats.Append(ctx, sess.UserID, message, response); err != nil {
		// The exchange is still returned to the user; a failed log
		// write must not turn into a failed answer.
		e.log.Error("Failed to persist chat exchange", err)
	}

	events.Emit(events.EventChatAnswered, sess.UserID)
	return response
}

func (e *Engine) answer(ctx context.Context, sess *session.Session, message string, params llm.Params) string {
	if strings.TrimSpace(e.cfg.APIKey) == "" {
		return MissingKeyMessage
	}

	accessible, err := e.resolver.Resolve(ctx, sess.UserID)
	if err != nil {
		e.log.Error("Access resolution failed", err)
		return errorPrefix + err.Error()
	}

	promptContext, usedIDs := e.assembler.BuildContext(ctx, accessible, message, e.ctxOpts)

	if !e.isDocumentRelated(message, promptContext) {
		return RefusalMessage
	}

	systemPrompt := buildSystemPrompt(promptContext, string(sess.Role))
	params = e.applyDefaults(params)

	raw, err := e.completer.Complete(ctx, systemPrompt, message, params)
	if err != nil {
		if errors.Is(err, llm.ErrTooLarge) {
			return TooLargeMessage
		}
		e.log.Error("Completion call failed", err)
		return errorPrefix + err.Error()
	}

	if e.cfg.ValidateResponses && !validResponse(raw) {
		return ValidationFallbackMessage
	}

	if err := e.resources.BumpAccess(ctx, usedIDs); err != nil {
		e.log.Warn("Failed to update access stats: %v", err)
	}

	return raw
}

// isDocumentRelated is the relevance short-circuit: an empty-context
// sentinel or an off-topic keyword in the raw message means the model
// is never called.
func (e *Engine) isDocumentRelated(message, promptContext string) bool {
	if strings.TrimSpace(promptContext) == "" || promptContext == assembler.EmptyContext {
		return false
	}

	lower := strings.ToLower(message)
	for _, keyword := range offTopicKeywords {
		if strings.Contains(lower, keyword) {
			return false
		}
	}
	return true
}

func (e *Engine) applyDefaults(p llm.Params) llm.Params {
	if p.Model == "" {
		p.Model = e.cfg.Model
	}
	if p.Temperature == 0 {
		p.Temperature = e.cfg.Temperature
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = e.cfg.MaxTokens
	}
	return p
}

// validResponse is the optional postcondition layer: reject answers
// that are too short or hedge instead of answering.
func validResponse(response string) bool {
	if len(strings.TrimSpace(response)) < minResponseLength {
		return false
	}
	lower := strings.ToLower(response)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// buildSystemPrompt embeds the context verbatim, states the single hard
// rule and the caller's role. The user message goes through unmodified
// as the user turn.
func buildSystemPrompt(promptContext, role string) string {
	return fmt.Sprintf(`You are a Tech Mahindra AI assistant. Answer questions based on these documents:

%s

Rules: Only answer questions about the documents above. If unrelated, say: %q. Be concise and professional.

User role: %s`, promptContext, RefusalMessage, role)
}
