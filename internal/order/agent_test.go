package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

type fakeNLU struct {
	changes    nlu.Entities
	hasChanges bool
	changesErr error
	reply      string
	replyErr   error
}

func (f *fakeNLU) ClassifyIntent(context.Context, string, []byte, []nlu.Message) (nlu.Intent, error) {
	return nlu.IntentUnknown, nil
}

func (f *fakeNLU) ExtractEntities(context.Context, string, []byte, []nlu.Message, time.Time) (nlu.Entities, error) {
	return nlu.Entities{}, nil
}

func (f *fakeNLU) ExtractChanges(context.Context, string, []byte, time.Time) (nlu.Entities, bool, error) {
	return f.changes, f.hasChanges, f.changesErr
}

func (f *fakeNLU) Reply(context.Context, string, string, []nlu.Message) (string, error) {
	return f.reply, f.replyErr
}

type fakeStore struct {
	saved     *Aggregate
	resets    int
	completed int
}

func (s *fakeStore) Save(_ context.Context, _ uuid.UUID, agg *Aggregate) error {
	s.saved = agg
	return nil
}

func (s *fakeStore) Reset(context.Context, uuid.UUID) (*Aggregate, error) {
	s.resets++
	return New(), nil
}

func (s *fakeStore) MarkCompleted(context.Context, uuid.UUID) error {
	s.completed++
	return nil
}

type fakeRecords struct {
	count     int
	countErr  error
	inserted  []Record
	insertErr error
	last      Record
	lastErr   error
}

func (r *fakeRecords) CountForDay(context.Context, time.Time) (int, error) {
	return r.count, r.countErr
}

func (r *fakeRecords) Insert(_ context.Context, rec Record) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, rec)
	return nil
}

func (r *fakeRecords) LastCompleted(context.Context, uuid.UUID) (Record, error) {
	return r.last, r.lastErr
}

func newTestAgent(svc *fakeNLU, store *fakeStore, records *fakeRecords) *Agent {
	if records.lastErr == nil && records.last.OrderID == "" {
		records.lastErr = ErrNoOrders
	}
	a := NewAgent(svc, newTestResolver(nil), store, records, resolverToday.Location(), logger.New("development"))
	a.now = func() time.Time { return resolverToday }
	return a
}

func completeAggregate() *Aggregate {
	agg := New()
	agg.Lines = []*Line{{PartNum: "OX-1", ProductName: "OKSIGEN UHP", Quantity: 3, Unit: "TABUNG", DeliveryDate: "2025-02-10"}}
	agg.CustomerName = "Budi Santoso"
	agg.CustomerCompany = "PT Maju Jaya"
	agg.Status = StatusInProgress
	agg.Recompute()
	return agg
}

func baseInput() Input {
	return Input{
		ConversationID: uuid.New(),
		Phone:          "6281234567890",
		Intent:         nlu.IntentOrder,
		Language:       language.Indonesian,
	}
}

func TestHandleCompleteOrderEmitsConfirmationPrompt(t *testing.T) {
	store := &fakeStore{}
	agent := newTestAgent(&fakeNLU{}, store, &fakeRecords{})
	agg := completeAggregate()

	in := baseInput()
	in.Message = "perusahaan saya PT Maju Jaya"
	resp := agent.Handle(context.Background(), agg, in)

	if !resp.AwaitConfirm {
		t.Fatalf("complete order must await confirmation")
	}
	if !strings.Contains(resp.Text, "DETAIL PESANAN") || !strings.Contains(resp.Text, "OKSIGEN UHP") {
		t.Fatalf("confirmation prompt missing order summary:\n%s", resp.Text)
	}
	if store.saved == nil {
		t.Fatalf("aggregate must be persisted before prompting")
	}
}

func TestHandleIncompleteOrderAsksForMissingField(t *testing.T) {
	agent := newTestAgent(&fakeNLU{reply: "Boleh tahu untuk kapan pengirimannya?"}, &fakeStore{}, &fakeRecords{})
	agg := completeAggregate()
	agg.Lines[0].DeliveryDate = ""
	agg.Recompute()

	resp := agent.Handle(context.Background(), agg, baseInput())

	if resp.AwaitConfirm {
		t.Fatalf("incomplete order must keep collecting")
	}
	if resp.Text != "Boleh tahu untuk kapan pengirimannya?" {
		t.Fatalf("unexpected reply: %q", resp.Text)
	}
}

func TestConfirmationYesCompletesOrder(t *testing.T) {
	store := &fakeStore{}
	records := &fakeRecords{count: 2}
	agent := newTestAgent(&fakeNLU{}, store, records)
	agg := completeAggregate()

	in := baseInput()
	in.Message = "ya"
	in.AwaitingConfirmation = true
	resp := agent.Handle(context.Background(), agg, in)

	if resp.AwaitConfirm {
		t.Fatalf("confirmed order must leave confirmation state")
	}
	if !strings.Contains(resp.Text, "ORD-20250205-0003") {
		t.Fatalf("receipt should carry the daily sequence id:\n%s", resp.Text)
	}
	if len(records.inserted) != 1 {
		t.Fatalf("expected one inserted record, got %d", len(records.inserted))
	}
	rec := records.inserted[0]
	if rec.DeliveryDate != "2025-02-10" || len(rec.Items) != 1 || rec.Items[0].PartNum != "OX-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if store.completed != 1 || store.resets != 1 {
		t.Fatalf("completion must mark and reset, got completed=%d resets=%d", store.completed, store.resets)
	}
}

func TestConfirmationEditRunsBeforeConfirm(t *testing.T) {
	svc := &fakeNLU{
		changes:    nlu.Entities{Lines: []nlu.LineItem{{DeliveryDate: "2025-02-06"}}},
		hasChanges: true,
	}
	records := &fakeRecords{}
	agent := newTestAgent(svc, &fakeStore{}, records)
	agg := completeAggregate()

	in := baseInput()
	in.Message = "ubah tanggal jadi besok ya"
	in.AwaitingConfirmation = true
	resp := agent.Handle(context.Background(), agg, in)

	if len(records.inserted) != 0 {
		t.Fatalf("an edit instruction ending in a confirm word must not finalize")
	}
	if !resp.AwaitConfirm {
		t.Fatalf("edit must re-enter confirmation")
	}
	if !strings.Contains(resp.Text, "2025-02-06") {
		t.Fatalf("refreshed summary should show the new date:\n%s", resp.Text)
	}
}

func TestConfirmationWordBoundary(t *testing.T) {
	agent := newTestAgent(&fakeNLU{}, &fakeStore{}, &fakeRecords{})
	agg := completeAggregate()

	in := baseInput()
	in.Message = "saya"
	in.AwaitingConfirmation = true
	resp := agent.Handle(context.Background(), agg, in)

	if !resp.AwaitConfirm {
		t.Fatalf("'saya' must not confirm; still awaiting")
	}
	if !strings.Contains(resp.Text, "kurang mengerti") {
		t.Fatalf("expected unclear re-prompt, got %q", resp.Text)
	}
}

func TestConfirmationCancel(t *testing.T) {
	store := &fakeStore{}
	agent := newTestAgent(&fakeNLU{}, store, &fakeRecords{})
	agg := completeAggregate()

	in := baseInput()
	in.Message = "gak jadi deh"
	in.AwaitingConfirmation = true
	resp := agent.Handle(context.Background(), agg, in)

	if resp.AwaitConfirm {
		t.Fatalf("cancel must leave confirmation state")
	}
	if store.resets != 1 {
		t.Fatalf("cancel must reset the aggregate")
	}
	if !strings.Contains(resp.Text, "dibatalkan") {
		t.Fatalf("expected cancellation message, got %q", resp.Text)
	}
}

func TestConfirmationEditWithoutChangesAsksWhichField(t *testing.T) {
	agent := newTestAgent(&fakeNLU{hasChanges: false}, &fakeStore{}, &fakeRecords{})
	agg := completeAggregate()

	in := baseInput()
	in.Message = "mau ubah"
	in.AwaitingConfirmation = true
	resp := agent.Handle(context.Background(), agg, in)

	if !resp.AwaitConfirm {
		t.Fatalf("must stay awaiting confirmation")
	}
	if !strings.Contains(resp.Text, "field apa") {
		t.Fatalf("expected which-field prompt, got %q", resp.Text)
	}
}

func TestPersistenceFailureYieldsTempID(t *testing.T) {
	records := &fakeRecords{insertErr: context.DeadlineExceeded}
	agent := newTestAgent(&fakeNLU{}, &fakeStore{}, records)
	agg := completeAggregate()

	in := baseInput()
	in.Message = "ya"
	in.AwaitingConfirmation = true
	resp := agent.Handle(context.Background(), agg, in)

	if !strings.Contains(resp.Text, "ORD-20250205-TEMP") {
		t.Fatalf("insert failure should fall back to the temp id:\n%s", resp.Text)
	}
	if !strings.Contains(resp.Text, "BERHASIL DIKONFIRMASI") {
		t.Fatalf("customer still gets a receipt on persistence failure")
	}
}

func TestCancellationStates(t *testing.T) {
	t.Run("in progress resets", func(t *testing.T) {
		store := &fakeStore{}
		agent := newTestAgent(&fakeNLU{}, store, &fakeRecords{})
		agg := completeAggregate()

		in := baseInput()
		in.Intent = nlu.IntentCancelOrder
		resp := agent.Handle(context.Background(), agg, in)

		if store.resets != 1 || !strings.Contains(resp.Text, "dibatalkan") {
			t.Fatalf("in-progress cancel must reset, got resets=%d text=%q", store.resets, resp.Text)
		}
	})

	t.Run("completed history escalates", func(t *testing.T) {
		records := &fakeRecords{last: Record{OrderID: "ORD-20250201-0001"}}
		agent := newTestAgent(&fakeNLU{}, &fakeStore{}, records)

		in := baseInput()
		in.Intent = nlu.IntentCancelOrder
		resp := agent.Handle(context.Background(), New(), in)

		if !strings.Contains(resp.Text, "call center") {
			t.Fatalf("expected escalation, got %q", resp.Text)
		}
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		agent := newTestAgent(&fakeNLU{}, &fakeStore{}, &fakeRecords{})

		in := baseInput()
		in.Intent = nlu.IntentCancelOrder
		resp := agent.Handle(context.Background(), New(), in)

		if !strings.Contains(resp.Text, "Tidak ada pesanan aktif") {
			t.Fatalf("expected nothing-to-cancel, got %q", resp.Text)
		}
	})
}

func TestCustomerAutofillFromPreviousOrder(t *testing.T) {
	records := &fakeRecords{last: Record{
		OrderID:         "ORD-20250201-0001",
		CustomerName:    "Budi Santoso",
		CustomerCompany: "PT Maju Jaya",
	}}
	agent := newTestAgent(&fakeNLU{reply: "Baik"}, &fakeStore{}, records)

	agg := New()
	agg.Lines[0].ProductName = "OKSIGEN"
	agg.Status = StatusInProgress
	agg.Recompute()

	agent.Handle(context.Background(), agg, baseInput())

	if agg.CustomerName != "Budi Santoso" || agg.CustomerCompany != "PT Maju Jaya" {
		t.Fatalf("customer fields should auto-fill from the last order: %+v", agg)
	}
}

func TestCompletedOrderGuard(t *testing.T) {
	agent := newTestAgent(&fakeNLU{reply: "Pesanan sebelumnya sudah selesai."}, &fakeStore{}, &fakeRecords{})
	agg := completeAggregate()
	agg.Status = StatusCompleted

	in := baseInput()
	in.Message = "tambah 2 tabung lagi"
	resp := agent.Handle(context.Background(), agg, in)

	if resp.Text != "Pesanan sebelumnya sudah selesai." {
		t.Fatalf("completed order must answer via the guard, got %q", resp.Text)
	}
	if resp.AwaitConfirm {
		t.Fatalf("guard response must not await confirmation")
	}
}

func TestHandleResume(t *testing.T) {
	t.Run("continue", func(t *testing.T) {
		agent := newTestAgent(&fakeNLU{reply: "Tinggal tanggal kirimnya."}, &fakeStore{}, &fakeRecords{})
		agg := completeAggregate()
		agg.Lines[0].DeliveryDate = ""
		agg.Recompute()

		in := baseInput()
		in.Message = "lanjut"
		resp, decided := agent.HandleResume(context.Background(), agg, in)

		if !decided {
			t.Fatalf("continue must resolve the resume question")
		}
		if resp.Text != "Tinggal tanggal kirimnya." {
			t.Fatalf("unexpected reply: %q", resp.Text)
		}
	})

	t.Run("restart", func(t *testing.T) {
		store := &fakeStore{}
		agent := newTestAgent(&fakeNLU{}, store, &fakeRecords{})

		in := baseInput()
		in.Message = "mulai baru"
		resp, decided := agent.HandleResume(context.Background(), completeAggregate(), in)

		if !decided || store.resets != 1 {
			t.Fatalf("restart must reset, decided=%v resets=%d", decided, store.resets)
		}
		if !strings.Contains(resp.Text, "pesanan baru") {
			t.Fatalf("unexpected reply: %q", resp.Text)
		}
	})

	t.Run("restart in english", func(t *testing.T) {
		store := &fakeStore{}
		agent := newTestAgent(&fakeNLU{}, store, &fakeRecords{})

		in := baseInput()
		in.Language = language.English
		in.Message = "Start New"
		resp, decided := agent.HandleResume(context.Background(), completeAggregate(), in)

		if !decided || store.resets != 1 {
			t.Fatalf("restart must reset, decided=%v resets=%d", decided, store.resets)
		}
		if !strings.Contains(resp.Text, "new order") {
			t.Fatalf("unexpected reply: %q", resp.Text)
		}
	})

	t.Run("unclear", func(t *testing.T) {
		agent := newTestAgent(&fakeNLU{}, &fakeStore{}, &fakeRecords{})

		in := baseInput()
		in.Message = "hmm"
		resp, decided := agent.HandleResume(context.Background(), completeAggregate(), in)

		if decided {
			t.Fatalf("unclear answer must keep awaiting resume")
		}
		if !strings.Contains(resp.Text, "melanjutkan pesanan sebelumnya") {
			t.Fatalf("unexpected reply: %q", resp.Text)
		}
	})
}
