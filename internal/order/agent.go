package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

// AggregateStore persists the per-conversation aggregate.
type AggregateStore interface {
	Save(ctx context.Context, conversationID uuid.UUID, agg *Aggregate) error
	// Reset replaces the aggregate with a fresh empty one and returns it.
	Reset(ctx context.Context, conversationID uuid.UUID) (*Aggregate, error)
	MarkCompleted(ctx context.Context, conversationID uuid.UUID) error
}

// Records is the completed-order archive.
type Records interface {
	CountForDay(ctx context.Context, day time.Time) (int, error)
	Insert(ctx context.Context, rec Record) error
	LastCompleted(ctx context.Context, conversationID uuid.UUID) (Record, error)
}

// Input carries one routed message into the state machine.
type Input struct {
	ConversationID       uuid.UUID
	Phone                string
	Message              string
	Intent               nlu.Intent
	Entities             nlu.Entities
	History              []nlu.Message
	Language             language.Code
	AwaitingConfirmation bool
}

// Response is what goes back to the customer, plus whether the next message
// must be routed straight into the confirmation sub-handler.
type Response struct {
	Text         string
	AwaitConfirm bool
}

// Agent owns the collect/confirm/edit/cancel/complete order lifecycle.
type Agent struct {
	nlu      nlu.Service
	resolver *Resolver
	store    AggregateStore
	records  Records
	tz       *time.Location
	log      *logger.Logger
	now      func() time.Time
}

func NewAgent(svc nlu.Service, resolver *Resolver, store AggregateStore, records Records, tz *time.Location, log *logger.Logger) *Agent {
	return &Agent{
		nlu:      svc,
		resolver: resolver,
		store:    store,
		records:  records,
		tz:       tz,
		log:      log,
		now:      time.Now,
	}
}

func (a *Agent) today() time.Time { return a.now().In(a.tz) }

// Handle processes one ORDER or CANCEL_ORDER message against the aggregate.
func (a *Agent) Handle(ctx context.Context, agg *Aggregate, in Input) Response {
	if in.AwaitingConfirmation {
		return a.handleConfirmation(ctx, agg, in)
	}

	// A confirmed order is locked; an ORDER message against it gets a
	// courtesy explanation and the offer to start a new one.
	if agg.Status == StatusCompleted && in.Intent == nlu.IntentOrder {
		return Response{Text: a.completedOrderReply(ctx, agg, in)}
	}

	if in.Intent == nlu.IntentCancelOrder {
		return a.handleCancellation(ctx, agg, in)
	}

	if !in.Entities.Empty() {
		if msg := a.resolver.Apply(ctx, agg, in.Entities, a.today(), in.Language); msg != "" {
			return Response{Text: msg}
		}
	}

	a.autofillCustomer(ctx, agg, in.ConversationID)
	agg.Recompute()

	if err := a.store.Save(ctx, in.ConversationID, agg); err != nil {
		a.log.DatabaseError("save order aggregate", err)
	}

	if agg.Complete && agg.Status == StatusInProgress {
		return Response{Text: ConfirmationPrompt(agg, in.Language), AwaitConfirm: true}
	}

	return Response{Text: a.askMissing(ctx, in.Message, agg, in.History, in.Language)}
}

// handleConfirmation dispatches the reply to a confirmation prompt. Edit
// detection runs before confirm detection: an edit instruction can itself
// end in a confirmation word ("ubah tanggal jadi besok ya").
func (a *Agent) handleConfirmation(ctx context.Context, agg *Aggregate, in Input) Response {
	input := strings.ToLower(strings.TrimSpace(in.Message))

	if containsAny(input, editWords) {
		return a.handleEdit(ctx, agg, in)
	}

	if containsAny(input, cancelWords) {
		if _, err := a.store.Reset(ctx, in.ConversationID); err != nil {
			a.log.DatabaseError("reset order aggregate", err)
		}
		return Response{Text: confirmCancelledMessage(in.Language)}
	}

	if matchesConfirmWord(input) {
		return Response{Text: a.completeOrder(ctx, agg, in)}
	}

	return Response{Text: unclearConfirmationMessage(in.Language), AwaitConfirm: true}
}

func (a *Agent) handleEdit(ctx context.Context, agg *Aggregate, in Input) Response {
	ents, hasChanges, err := a.nlu.ExtractChanges(ctx, in.Message, agg.Snapshot(), a.today())
	if err != nil {
		a.log.LLMError("extract order changes", err)
		return Response{Text: editNotUnderstoodMessage(in.Language), AwaitConfirm: true}
	}
	if !hasChanges || ents.Empty() {
		return Response{Text: editWhichFieldMessage(in.Language), AwaitConfirm: true}
	}

	if msg := a.resolver.Apply(ctx, agg, ents, a.today(), in.Language); msg != "" {
		return Response{Text: msg, AwaitConfirm: true}
	}

	agg.Recompute()
	if err := a.store.Save(ctx, in.ConversationID, agg); err != nil {
		a.log.DatabaseError("save order aggregate", err)
	}

	if !agg.Complete {
		// The edit knocked out a required field; fall back to collecting.
		return Response{Text: a.askMissing(ctx, in.Message, agg, in.History, in.Language)}
	}
	return Response{Text: ConfirmationPrompt(agg, in.Language), AwaitConfirm: true}
}

func (a *Agent) completeOrder(ctx context.Context, agg *Aggregate, in Input) string {
	orderID := a.persistRecord(ctx, agg, in)

	receipt := Receipt(orderID, agg, in.Language)

	if err := a.store.MarkCompleted(ctx, in.ConversationID); err != nil {
		a.log.DatabaseError("mark order completed", err)
	}
	if _, err := a.store.Reset(ctx, in.ConversationID); err != nil {
		a.log.DatabaseError("reset order aggregate", err)
	}
	return receipt
}

// persistRecord allocates the daily order id and writes the immutable
// record. A persistence failure still yields a placeholder id so the
// customer gets a receipt; the failure is logged for reconciliation.
func (a *Agent) persistRecord(ctx context.Context, agg *Aggregate, in Input) string {
	day := a.today()

	count, err := a.records.CountForDay(ctx, day)
	if err != nil {
		a.log.DatabaseError("count daily orders", err)
		return fmt.Sprintf("ORD-%s-TEMP", day.Format("20060102"))
	}
	orderID := fmt.Sprintf("ORD-%s-%04d", day.Format("20060102"), count+1)

	items := make([]Item, 0, len(agg.Lines))
	for _, line := range agg.Lines {
		items = append(items, Item{
			PartNum:      line.PartNum,
			ProductName:  line.ProductName,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
			DeliveryDate: line.DeliveryDate,
		})
	}

	rec := Record{
		OrderID:         orderID,
		ConversationID:  in.ConversationID,
		CustomerName:    agg.CustomerName,
		CustomerCompany: agg.CustomerCompany,
		CustomerPhone:   in.Phone,
		DeliveryDate:    agg.EarliestDeliveryDate(),
		Status:          "confirmed",
		Items:           items,
	}
	if err := a.records.Insert(ctx, rec); err != nil {
		a.log.DatabaseError("insert order record", err)
		return fmt.Sprintf("ORD-%s-TEMP", day.Format("20060102"))
	}

	a.log.ConversationEvent(in.ConversationID.String(), "order completed", slog.String("order_id", orderID))
	return orderID
}

func (a *Agent) handleCancellation(ctx context.Context, agg *Aggregate, in Input) Response {
	if agg.Status == StatusInProgress {
		if _, err := a.store.Reset(ctx, in.ConversationID); err != nil {
			a.log.DatabaseError("reset order aggregate", err)
		}
		return Response{Text: cancelledMessage(in.Language)}
	}

	if _, err := a.records.LastCompleted(ctx, in.ConversationID); err == nil {
		// Cancelling an already-confirmed order is a call-center matter.
		return Response{Text: escalateCancelMessage(in.Language)}
	} else if !errors.Is(err, ErrNoOrders) {
		a.log.DatabaseError("load previous orders", err)
	}

	return Response{Text: nothingToCancelMessage(in.Language)}
}

func (a *Agent) autofillCustomer(ctx context.Context, agg *Aggregate, conversationID uuid.UUID) {
	if agg.CustomerName != "" && agg.CustomerCompany != "" {
		return
	}
	if agg.Status != StatusNew && agg.Status != StatusInProgress {
		return
	}

	rec, err := a.records.LastCompleted(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, ErrNoOrders) {
			a.log.DatabaseError("load previous orders", err)
		}
		return
	}
	if agg.CustomerName == "" && rec.CustomerName != "" {
		agg.CustomerName = rec.CustomerName
	}
	if agg.CustomerCompany == "" && rec.CustomerCompany != "" {
		agg.CustomerCompany = rec.CustomerCompany
	}
}

func (a *Agent) askMissing(ctx context.Context, message string, agg *Aggregate, history []nlu.Message, lang language.Code) string {
	reply, err := a.nlu.Reply(ctx, askMissingSystemPrompt(agg.Snapshot(), lang), message, history)
	if err != nil {
		a.log.LLMError("ask for missing fields", err)
		return fallbackAskMessage(agg, lang)
	}
	return reply
}

func (a *Agent) completedOrderReply(ctx context.Context, agg *Aggregate, in Input) string {
	reply, err := a.nlu.Reply(ctx, completedOrderSystemPrompt(agg.Snapshot(), in.Language), in.Message, in.History)
	if err != nil {
		a.log.LLMError("completed order reply", err)
		if in.Language == language.English {
			return "Your previous order is already confirmed and can no longer be changed. Would you like to place a new order?"
		}
		return "Pesanan Anda sebelumnya sudah dikonfirmasi dan tidak bisa diubah lagi. Apakah Anda ingin membuat pesanan baru?"
	}
	return reply
}

// HandleResume processes the reply to a resume prompt. The second return
// value reports whether the customer gave a usable answer; when false the
// session stays in the awaiting-resume state.
func (a *Agent) HandleResume(ctx context.Context, agg *Aggregate, in Input) (Response, bool) {
	input := strings.ToLower(strings.TrimSpace(in.Message))

	if containsAny(input, resumeContinueWords) {
		return Response{Text: a.askMissing(ctx, "lanjutkan pesanan", agg, in.History, in.Language)}, true
	}

	if containsAny(input, resumeRestartWords) {
		if _, err := a.store.Reset(ctx, in.ConversationID); err != nil {
			a.log.DatabaseError("reset order aggregate", err)
		}
		return Response{Text: freshOrderMessage(in.Language)}, true
	}

	return Response{Text: resumeUnclearMessage(in.Language)}, false
}

var (
	confirmWords = []string{"ya", "konfirmasi", "yes", "ok", "oke", "benar", "betul"}
	cancelWords  = []string{"batal", "cancel", "stop", "gak jadi", "tidak jadi"}
	editWords    = []string{"ubah", "edit", "ganti", "salah", "change", "modify"}

	resumeContinueWords = []string{"ya", "lanjut", "iya", "yes", "continue", "ok", "oke"}
	resumeRestartWords  = []string{"baru", "mulai baru", "new", "gak", "tidak", "no", "cancel"}
)

// matchesConfirmWord requires the confirm word at a word boundary: the
// whole message, its first word, or its last word. "ya" inside "saya"
// must not confirm an order.
func matchesConfirmWord(input string) bool {
	for _, w := range confirmWords {
		if input == w || strings.HasPrefix(input, w+" ") || strings.HasSuffix(input, " "+w) {
			return true
		}
	}
	return false
}

func containsAny(input string, words []string) bool {
	for _, w := range words {
		if strings.Contains(input, w) {
			return true
		}
	}
	return false
}

func fallbackAskMessage(agg *Aggregate, lang language.Code) string {
	if lang == language.English {
		return "Could you share the remaining order details? I still need the product, quantity, delivery date, your name, or your company."
	}
	return "Boleh dilengkapi detail pesanannya? Saya masih memerlukan produk, jumlah, tanggal kirim, nama, atau nama perusahaan Anda."
}
