package conversation

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/internal/order"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

// sessionRepo is what the router needs from the conversation repository.
type sessionRepo interface {
	GetOrCreateByPhone(ctx context.Context, phone string) (Conversation, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (Conversation, error)
	UpdateSession(ctx context.Context, id uuid.UUID, state SessionState, lang language.Code) error
}

// sessionStore is what the router needs from the session store.
type sessionStore interface {
	Load(ctx context.Context, conv *Conversation) *order.Aggregate
	Save(ctx context.Context, id uuid.UUID, agg *order.Aggregate) error
	AppendMessage(ctx context.Context, id uuid.UUID, role, content string, entities []byte)
	Context(ctx context.Context, id uuid.UUID) []nlu.Message
}

// ReminderScheduler schedules a WhatsApp nudge for an order the customer
// left unfinished. The worker re-checks idleness before sending.
type ReminderScheduler interface {
	ScheduleOrderReminder(ctx context.Context, conversationID, phone string, runAt time.Time) error
}

// Router is the session-level orchestrator: it decides, per incoming
// message, whether the session state overrides intent classification, and
// routes to the order agent, the courtesy path, or the escalation paths.
type Router struct {
	repo        sessionRepo
	store       sessionStore
	nlu         nlu.Service
	agent       *order.Agent
	resolver    *order.Resolver
	defaultLang language.Code
	tz          *time.Location
	log         *logger.Logger

	reminders     ReminderScheduler
	reminderDelay time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*sync.Mutex
	now      func() time.Time
}

func NewRouter(repo sessionRepo, store sessionStore, svc nlu.Service, agent *order.Agent, resolver *order.Resolver, defaultLang language.Code, tz *time.Location, log *logger.Logger) *Router {
	return &Router{
		repo:        repo,
		store:       store,
		nlu:         svc,
		agent:       agent,
		resolver:    resolver,
		defaultLang: defaultLang,
		tz:          tz,
		log:         log,
		sessions:    make(map[uuid.UUID]*sync.Mutex),
		now:         time.Now,
	}
}

// SetReminderScheduler enables idle-order reminders. Without it the router
// simply never schedules any.
func (r *Router) SetReminderScheduler(s ReminderScheduler, delay time.Duration) {
	r.reminders = s
	r.reminderDelay = delay
}

func (r *Router) today() time.Time { return r.now().In(r.tz) }

// sessionLock serializes message handling per conversation. Two messages
// for the same session must not interleave aggregate mutations.
func (r *Router) sessionLock(id uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	mu, ok := r.sessions[id]
	if !ok {
		mu = &sync.Mutex{}
		r.sessions[id] = mu
	}
	return mu
}

// Start opens (or reopens) the session for a phone number and returns the
// welcome message. An unfinished order triggers the resume prompt instead.
func (r *Router) Start(ctx context.Context, phone string) (Conversation, string, error) {
	conv, created, err := r.repo.GetOrCreateByPhone(ctx, phone)
	if err != nil {
		return Conversation{}, "", err
	}

	lang := conv.Language
	if !lang.Valid() {
		lang = r.defaultLang
	}

	agg := r.store.Load(ctx, &conv)
	if conv.OrderStatus == string(order.StatusInProgress) && agg.HasData() {
		welcome := order.ResumePrompt(agg, lang)
		if err := r.repo.UpdateSession(ctx, conv.ID, StateAwaitingResume, lang); err != nil {
			r.log.DatabaseError("update session", err)
		}
		r.store.AppendMessage(ctx, conv.ID, "assistant", welcome, nil)
		r.log.ConversationEvent(conv.ID.String(), "resume prompt")
		return conv, welcome, nil
	}

	if created {
		r.store.AppendMessage(ctx, conv.ID, "assistant", welcomeNew, nil)
		return conv, welcomeNew, nil
	}
	return conv, welcomeBack, nil
}

// Handle routes one incoming message and returns the reply.
func (r *Router) Handle(ctx context.Context, id uuid.UUID, message string) (string, error) {
	mu := r.sessionLock(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	agg := r.store.Load(ctx, &conv)

	// The language locks on the first message and changes only on an
	// explicit switch request afterwards.
	lang := conv.Language
	if !lang.Valid() {
		lang = language.Detect(message)
	}
	langChanged := false
	if sw := language.SwitchRequest(message); sw.Valid() && sw != lang {
		lang = sw
		langChanged = true
	}

	in := order.Input{
		ConversationID: conv.ID,
		Phone:          conv.PhoneNumber,
		Message:        message,
		Language:       lang,
	}

	var (
		reply    string
		state    SessionState
		entities []byte
	)

	switch conv.SessionState {
	case StateAwaitingResume:
		res, decided := r.agent.HandleResume(ctx, agg, in)
		reply, state = res.Text, StateAwaitingResume
		if decided {
			state = StateIdle
		}

	case StateHandoff:
		reply, state = r.handlePostHandoff(ctx, &conv, agg, in)

	case StateAwaitingConfirmation:
		in.AwaitingConfirmation = true
		in.History = r.store.Context(ctx, conv.ID)
		res := r.agent.Handle(ctx, agg, in)
		reply, state = res.Text, StateIdle
		if res.AwaitConfirm {
			state = StateAwaitingConfirmation
		}

	default:
		reply, state, entities = r.routeByIntent(ctx, &conv, agg, in, langChanged)
	}

	r.store.AppendMessage(ctx, conv.ID, "user", message, entities)
	r.store.AppendMessage(ctx, conv.ID, "assistant", reply, nil)

	if state != conv.SessionState || lang != conv.Language {
		if err := r.repo.UpdateSession(ctx, conv.ID, state, lang); err != nil {
			r.log.DatabaseError("update session", err)
		}
	}

	if r.reminders != nil && state != StateHandoff &&
		agg.Status == order.StatusInProgress && agg.HasData() {
		if err := r.reminders.ScheduleOrderReminder(ctx, conv.ID.String(), conv.PhoneNumber, r.now().Add(r.reminderDelay)); err != nil {
			r.log.Warn("schedule order reminder", "error", err)
		}
	}
	return reply, nil
}

func (r *Router) routeByIntent(ctx context.Context, conv *Conversation, agg *order.Aggregate, in order.Input, langChanged bool) (string, SessionState, []byte) {
	history := r.store.Context(ctx, conv.ID)
	in.History = history

	intent, err := r.nlu.ClassifyIntent(ctx, in.Message, agg.Snapshot(), history)
	if err != nil {
		r.log.LLMError("classify intent", err)
		return pleaseRepeatMessage(in.Language), StateIdle, nil
	}
	r.log.ConversationEvent(conv.ID.String(), "intent "+string(intent))

	switch intent {
	case nlu.IntentHumanHandoff:
		// Aggregate untouched: the human agent gets whatever was
		// captured so far.
		return handoffMessage(handoffSummary(agg), in.Language), StateHandoff, nil

	case nlu.IntentChitChat:
		reply, err := r.nlu.Reply(ctx, chitChatSystemPrompt(in.Language), in.Message, lastN(history, 3))
		if err != nil {
			r.log.LLMError("chit chat reply", err)
			reply = chitChatFallbackMessage(in.Language)
		}
		return reply, StateIdle, nil

	case nlu.IntentOrder, nlu.IntentCancelOrder:
		in.Intent = intent
		if intent == nlu.IntentOrder {
			ents, err := r.nlu.ExtractEntities(ctx, in.Message, agg.Snapshot(), history, r.today())
			if err != nil {
				r.log.LLMError("extract entities", err)
			} else {
				in.Entities = ents
			}
		}

		res := r.agent.Handle(ctx, agg, in)
		state := StateIdle
		if res.AwaitConfirm {
			state = StateAwaitingConfirmation
		}
		return res.Text, state, marshalEntities(in.Entities)

	default:
		if langChanged {
			return switchAckMessage(in.Language), StateIdle, nil
		}
		return escalationMessage(in.Language), StateIdle, nil
	}
}

// handlePostHandoff deals with messages sent while a human agent is on the
// way. A cancel keyword folds the session back to the bot; order data is
// silently merged into the preserved aggregate; anything else gets a brief
// acknowledgment.
func (r *Router) handlePostHandoff(ctx context.Context, conv *Conversation, agg *order.Aggregate, in order.Input) (string, SessionState) {
	lower := strings.ToLower(strings.TrimSpace(in.Message))
	for _, k := range handoffCancelKeywords {
		if strings.Contains(lower, k) {
			r.log.ConversationEvent(conv.ID.String(), "handoff cancelled")
			return handoffCancelledMessage(in.Language), StateIdle
		}
	}

	history := r.store.Context(ctx, conv.ID)
	intent, err := r.nlu.ClassifyIntent(ctx, in.Message, agg.Snapshot(), history)
	if err != nil {
		r.log.LLMError("classify intent", err)
		return handoffAckMessage(in.Language), StateHandoff
	}

	if intent == nlu.IntentOrder {
		ents, err := r.nlu.ExtractEntities(ctx, in.Message, agg.Snapshot(), history, r.today())
		if err == nil && !ents.Empty() {
			if msg := r.resolver.Apply(ctx, agg, ents, r.today(), in.Language); msg == "" {
				if err := r.store.Save(ctx, conv.ID, agg); err != nil {
					r.log.DatabaseError("save order aggregate", err)
				}
				return handoffNotedMessage(in.Language), StateHandoff
			}
		}
		if err != nil {
			r.log.LLMError("extract entities", err)
		}
	}
	return handoffAckMessage(in.Language), StateHandoff
}

func marshalEntities(ents nlu.Entities) []byte {
	if ents.Empty() {
		return nil
	}
	data, err := json.Marshal(ents)
	if err != nil {
		return nil
	}
	return data
}

func lastN(msgs []nlu.Message, n int) []nlu.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
