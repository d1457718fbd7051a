package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leen2210/Chatbot-Samator/internal/catalog"
	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/internal/order"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

var routerToday = time.Date(2025, 2, 5, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))

type fakeNLU struct {
	intent      nlu.Intent
	intentErr   error
	entities    nlu.Entities
	entitiesErr error
	reply       string
	replyErr    error
}

func (f *fakeNLU) ClassifyIntent(context.Context, string, []byte, []nlu.Message) (nlu.Intent, error) {
	return f.intent, f.intentErr
}

func (f *fakeNLU) ExtractEntities(context.Context, string, []byte, []nlu.Message, time.Time) (nlu.Entities, error) {
	return f.entities, f.entitiesErr
}

func (f *fakeNLU) ExtractChanges(context.Context, string, []byte, time.Time) (nlu.Entities, bool, error) {
	return nlu.Entities{}, false, nil
}

func (f *fakeNLU) Reply(context.Context, string, string, []nlu.Message) (string, error) {
	return f.reply, f.replyErr
}

type fakeRepo struct {
	conv          Conversation
	created       bool
	sessionState  SessionState
	sessionLang   language.Code
	sessionSaved  bool
	notFoundOnGet bool
}

func (r *fakeRepo) GetOrCreateByPhone(context.Context, string) (Conversation, bool, error) {
	return r.conv, r.created, nil
}

func (r *fakeRepo) GetByID(context.Context, uuid.UUID) (Conversation, error) {
	if r.notFoundOnGet {
		return Conversation{}, ErrConversationNotFound
	}
	return r.conv, nil
}

func (r *fakeRepo) UpdateSession(_ context.Context, _ uuid.UUID, state SessionState, lang language.Code) error {
	r.sessionSaved = true
	r.sessionState = state
	r.sessionLang = lang
	return nil
}

type fakeSessionStore struct {
	agg      *order.Aggregate
	history  []nlu.Message
	appended []nlu.Message
	saves    int
	resets   int
}

func (s *fakeSessionStore) Load(context.Context, *Conversation) *order.Aggregate {
	if s.agg == nil {
		s.agg = order.New()
	}
	return s.agg
}

func (s *fakeSessionStore) Save(_ context.Context, _ uuid.UUID, agg *order.Aggregate) error {
	s.saves++
	s.agg = agg
	return nil
}

func (s *fakeSessionStore) Reset(context.Context, uuid.UUID) (*order.Aggregate, error) {
	s.resets++
	s.agg = order.New()
	return s.agg, nil
}

func (s *fakeSessionStore) MarkCompleted(context.Context, uuid.UUID) error { return nil }

func (s *fakeSessionStore) AppendMessage(_ context.Context, _ uuid.UUID, role, content string, _ []byte) {
	s.appended = append(s.appended, nlu.Message{Role: role, Content: content})
}

func (s *fakeSessionStore) Context(context.Context, uuid.UUID) []nlu.Message {
	return s.history
}

type stubRecords struct{}

func (stubRecords) CountForDay(context.Context, time.Time) (int, error) { return 0, nil }
func (stubRecords) Insert(context.Context, order.Record) error          { return nil }
func (stubRecords) LastCompleted(context.Context, uuid.UUID) (order.Record, error) {
	return order.Record{}, order.ErrNoOrders
}

type stubLookup struct{}

func (stubLookup) Best(context.Context, string) (*catalog.Match, error) { return nil, nil }

func newTestRouter(svc *fakeNLU, repo *fakeRepo, store *fakeSessionStore) *Router {
	log := logger.New("development")
	resolver := order.NewResolver(stubLookup{}, log)
	agent := order.NewAgent(svc, resolver, store, stubRecords{}, routerToday.Location(), log)
	r := NewRouter(repo, store, svc, agent, resolver, language.Indonesian, routerToday.Location(), log)
	r.now = func() time.Time { return routerToday }
	return r
}

func activeConversation(state SessionState) Conversation {
	return Conversation{
		ID:           uuid.New(),
		PhoneNumber:  "6281234567890",
		Status:       "active",
		OrderStatus:  "new",
		SessionState: state,
		Language:     language.Indonesian,
	}
}

func TestStartNewConversation(t *testing.T) {
	repo := &fakeRepo{conv: activeConversation(StateIdle), created: true}
	store := &fakeSessionStore{}
	r := newTestRouter(&fakeNLU{}, repo, store)

	_, welcome, err := r.Start(context.Background(), "6281234567890")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(welcome, "Chatbot Asisten") {
		t.Fatalf("expected first-contact welcome, got %q", welcome)
	}
}

func TestStartWithUnfinishedOrderPromptsResume(t *testing.T) {
	conv := activeConversation(StateIdle)
	conv.OrderStatus = "in_progress"
	repo := &fakeRepo{conv: conv}

	agg := order.New()
	agg.Lines[0].ProductName = "OKSIGEN UHP"
	agg.Lines[0].Quantity = 3
	agg.Status = order.StatusInProgress
	agg.Recompute()
	store := &fakeSessionStore{agg: agg}

	r := newTestRouter(&fakeNLU{}, repo, store)
	_, welcome, err := r.Start(context.Background(), "6281234567890")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !strings.Contains(welcome, "belum selesai") || !strings.Contains(welcome, "OKSIGEN UHP") {
		t.Fatalf("expected resume prompt with order summary, got %q", welcome)
	}
	if repo.sessionState != StateAwaitingResume {
		t.Fatalf("session must await resume, got %s", repo.sessionState)
	}
}

func TestHandleOrderIntentRunsAgent(t *testing.T) {
	qty := 3
	svc := &fakeNLU{
		intent: nlu.IntentOrder,
		entities: nlu.Entities{
			Lines: []nlu.LineItem{{ProductName: "oksigen", Quantity: &qty, Unit: "tabung"}},
		},
		reply: "Boleh tahu tanggal kirimnya?",
	}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}
	store := &fakeSessionStore{}
	r := newTestRouter(svc, repo, store)

	reply, err := r.Handle(context.Background(), repo.conv.ID, "pesan oksigen 3 tabung")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply != "Boleh tahu tanggal kirimnya?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if store.agg.Lines[0].ProductName != "oksigen" || store.agg.Lines[0].Quantity != 3 {
		t.Fatalf("entities not applied: %+v", store.agg.Lines[0])
	}
	if len(store.appended) != 2 {
		t.Fatalf("user and assistant turns must be logged, got %d", len(store.appended))
	}
}

func TestAwaitingConfirmationBypassesClassification(t *testing.T) {
	// The classifier would call a bare "ya" chit chat; the session state
	// must route it into the confirmation sub-handler instead.
	svc := &fakeNLU{intent: nlu.IntentChitChat}
	repo := &fakeRepo{conv: activeConversation(StateAwaitingConfirmation)}

	agg := order.New()
	agg.Lines = []*order.Line{{PartNum: "OX-1", ProductName: "OKSIGEN", Quantity: 3, Unit: "TABUNG", DeliveryDate: "2025-02-10"}}
	agg.CustomerName = "Budi"
	agg.CustomerCompany = "PT Maju"
	agg.Status = order.StatusInProgress
	agg.Recompute()
	store := &fakeSessionStore{agg: agg}

	r := newTestRouter(svc, repo, store)
	reply, err := r.Handle(context.Background(), repo.conv.ID, "ya")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !strings.Contains(reply, "BERHASIL DIKONFIRMASI") {
		t.Fatalf("'ya' while awaiting confirmation must finalize:\n%s", reply)
	}
	if repo.sessionState != StateIdle {
		t.Fatalf("session must return to idle, got %s", repo.sessionState)
	}
}

func TestHumanHandoffPreservesAggregate(t *testing.T) {
	svc := &fakeNLU{intent: nlu.IntentHumanHandoff}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}

	agg := order.New()
	agg.CustomerName = "Budi"
	agg.Lines[0].ProductName = "NITROGEN"
	agg.Status = order.StatusInProgress
	agg.Recompute()
	store := &fakeSessionStore{agg: agg}

	r := newTestRouter(svc, repo, store)
	reply, err := r.Handle(context.Background(), repo.conv.ID, "saya mau bicara dengan manusia")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !strings.Contains(reply, "agen") || !strings.Contains(reply, "NITROGEN") {
		t.Fatalf("handoff must include the captured summary:\n%s", reply)
	}
	if repo.sessionState != StateHandoff {
		t.Fatalf("session must enter handoff, got %s", repo.sessionState)
	}
	if agg.CustomerName != "Budi" {
		t.Fatalf("aggregate must be preserved")
	}
}

func TestPostHandoffCancelReturnsToBot(t *testing.T) {
	svc := &fakeNLU{intent: nlu.IntentChitChat}
	repo := &fakeRepo{conv: activeConversation(StateHandoff)}
	store := &fakeSessionStore{}

	r := newTestRouter(svc, repo, store)
	reply, err := r.Handle(context.Background(), repo.conv.ID, "balik ke bot aja")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !strings.Contains(reply, "masih tersimpan") {
		t.Fatalf("expected back-to-bot message, got %q", reply)
	}
	if repo.sessionState != StateIdle {
		t.Fatalf("handoff must be cancelled, got %s", repo.sessionState)
	}
}

func TestPostHandoffOrderDataFoldedSilently(t *testing.T) {
	qty := 5
	svc := &fakeNLU{
		intent:   nlu.IntentOrder,
		entities: nlu.Entities{Lines: []nlu.LineItem{{Quantity: &qty}}},
	}
	repo := &fakeRepo{conv: activeConversation(StateHandoff)}

	agg := order.New()
	agg.Lines[0].ProductName = "OKSIGEN"
	agg.Status = order.StatusInProgress
	agg.Recompute()
	store := &fakeSessionStore{agg: agg}

	r := newTestRouter(svc, repo, store)
	reply, err := r.Handle(context.Background(), repo.conv.ID, "jumlahnya 5")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !strings.Contains(reply, "sudah saya catat") {
		t.Fatalf("expected noted acknowledgment, got %q", reply)
	}
	if store.agg.Lines[0].Quantity != 5 {
		t.Fatalf("order data must fold into the preserved aggregate: %+v", store.agg.Lines[0])
	}
	if repo.sessionSaved && repo.sessionState != StateHandoff {
		t.Fatalf("session must stay in handoff, got %s", repo.sessionState)
	}
}

func TestFallbackIntentEscalates(t *testing.T) {
	svc := &fakeNLU{intent: nlu.IntentFallback}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}
	r := newTestRouter(svc, repo, &fakeSessionStore{})

	reply, err := r.Handle(context.Background(), repo.conv.ID, "bisa bantu reset password email saya?")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(reply, "customer service") {
		t.Fatalf("expected escalation redirect, got %q", reply)
	}
}

func TestLanguageSwitchAcknowledged(t *testing.T) {
	svc := &fakeNLU{intent: nlu.IntentFallback}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}
	r := newTestRouter(svc, repo, &fakeSessionStore{})

	reply, err := r.Handle(context.Background(), repo.conv.ID, "can we just talk in english please")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(reply, "continue in English") {
		t.Fatalf("expected switch acknowledgment, got %q", reply)
	}
	if repo.sessionLang != language.English {
		t.Fatalf("locked language must update, got %s", repo.sessionLang)
	}
}

func TestFirstMessageLocksDetectedLanguage(t *testing.T) {
	svc := &fakeNLU{intent: nlu.IntentChitChat, reply: "Hello! How can I help you today?"}
	conv := activeConversation(StateIdle)
	conv.Language = ""
	repo := &fakeRepo{conv: conv}
	r := newTestRouter(svc, repo, &fakeSessionStore{})

	if _, err := r.Handle(context.Background(), conv.ID, "hello, i would like to order some oxygen"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if repo.sessionLang != language.English {
		t.Fatalf("first message must lock the detected language, got %q", repo.sessionLang)
	}
}

func TestClassifierFailureAsksToRepeat(t *testing.T) {
	svc := &fakeNLU{intentErr: context.DeadlineExceeded}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}
	r := newTestRouter(svc, repo, &fakeSessionStore{})

	reply, err := r.Handle(context.Background(), repo.conv.ID, "halo")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(reply, "diulangi") {
		t.Fatalf("expected please-repeat fallback, got %q", reply)
	}
}

type fakeReminders struct {
	conversationID string
	phone          string
	runAt          time.Time
	calls          int
}

func (f *fakeReminders) ScheduleOrderReminder(_ context.Context, conversationID, phone string, runAt time.Time) error {
	f.calls++
	f.conversationID = conversationID
	f.phone = phone
	f.runAt = runAt
	return nil
}

func TestInProgressOrderSchedulesReminder(t *testing.T) {
	qty := 3
	svc := &fakeNLU{
		intent:   nlu.IntentOrder,
		entities: nlu.Entities{Lines: []nlu.LineItem{{ProductName: "oksigen", Quantity: &qty}}},
		reply:    "Boleh tahu tanggal kirimnya?",
	}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}
	store := &fakeSessionStore{}
	r := newTestRouter(svc, repo, store)

	reminders := &fakeReminders{}
	delay := 4 * time.Hour
	r.SetReminderScheduler(reminders, delay)

	if _, err := r.Handle(context.Background(), repo.conv.ID, "pesan oksigen 3"); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if reminders.calls != 1 {
		t.Fatalf("expected one scheduled reminder, got %d", reminders.calls)
	}
	if reminders.conversationID != repo.conv.ID.String() || reminders.phone != repo.conv.PhoneNumber {
		t.Fatalf("reminder must target the conversation: %+v", reminders)
	}
	if !reminders.runAt.Equal(routerToday.Add(delay)) {
		t.Fatalf("reminder must fire after the idle delay, got %s", reminders.runAt)
	}
}

func TestChitChatNeverSchedulesReminder(t *testing.T) {
	svc := &fakeNLU{intent: nlu.IntentChitChat, reply: "Halo juga!"}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}
	r := newTestRouter(svc, repo, &fakeSessionStore{})

	reminders := &fakeReminders{}
	r.SetReminderScheduler(reminders, 4*time.Hour)

	if _, err := r.Handle(context.Background(), repo.conv.ID, "halo"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reminders.calls != 0 {
		t.Fatalf("empty aggregate must not schedule a reminder, got %d", reminders.calls)
	}
}

func TestChitChatReply(t *testing.T) {
	svc := &fakeNLU{intent: nlu.IntentChitChat, reply: "Sama-sama! Ada yang bisa saya bantu lagi?"}
	repo := &fakeRepo{conv: activeConversation(StateIdle)}
	r := newTestRouter(svc, repo, &fakeSessionStore{})

	reply, err := r.Handle(context.Background(), repo.conv.ID, "terima kasih ya")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply != "Sama-sama! Ada yang bisa saya bantu lagi?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}
