package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Freeeeeet/coach_portal/internal/events"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/IBM/sarama"
	saramamocks "github.com/IBM/sarama/mocks"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEvent(t model.PurchaseEventType, delta int) model.PurchaseEvent {
	p := model.Purchase{
		ID:               uuid.New(),
		ClientID:         7,
		UserID:           "lifter@example.com",
		PackageType:      "Intro Pack",
		SessionType:      model.SessionTypeGroup,
		SessionsIncluded: 5,
		AmountPaid:       15000,
		PaymentMethod:    model.PaymentMethodStripe,
		PaymentStatus:    model.PaymentStatusCompleted,
	}
	return model.NewPurchaseEvent(t, p, p.UserID, delta)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := saramamocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got model.PurchaseEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Type != model.PurchaseEventRecorded || got.SessionsDelta != 5 {
			return errors.New("unexpected payload")
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := events.NewKafkaPublisherWithProducer(producer, "purchases", zap.NewNop())
	assert.Equal(t, "kafka", publisher.Name())

	err := publisher.Publish(context.Background(), testEvent(model.PurchaseEventRecorded, 5))
	require.NoError(t, err)

	err = publisher.Publish(context.Background(), testEvent(model.PurchaseEventDeleted, -5))
	assert.ErrorIs(t, err, model.ErrNetwork)

	require.NoError(t, publisher.Close())
}

func TestKafkaPublisher_CancelledContext(t *testing.T) {
	producer := saramamocks.NewSyncProducer(t, nil)
	publisher := events.NewKafkaPublisherWithProducer(producer, "purchases", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.Publish(ctx, testEvent(model.PurchaseEventRecorded, 5))
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, publisher.Close())
}

func TestNewKafkaPublisher_Config(t *testing.T) {
	_, err := events.NewKafkaPublisher(nil, "purchases", 0, zap.NewNop())
	assert.Error(t, err)

	_, err = events.NewKafkaPublisher([]string{"localhost:9092"}, "", 0, zap.NewNop())
	assert.Error(t, err)
}

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: len(f.sent)}, nil
}

func TestTelegramNotifier_Publish(t *testing.T) {
	sender := &fakeSender{}
	notifier := events.NewTelegramNotifier(sender, -100123)

	err := notifier.Publish(context.Background(), testEvent(model.PurchaseEventRecorded, 5))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Equal(t, models.ParseModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "New purchase")
	assert.Contains(t, msg.Text, "lifter@example.com")
	assert.Contains(t, msg.Text, "$150.00")
	assert.Contains(t, msg.Text, "+5 sessions")

	sender.err = errors.New("telegram down")
	err = notifier.Publish(context.Background(), testEvent(model.PurchaseEventDeleted, -1))
	assert.ErrorIs(t, err, model.ErrNetwork)
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name  string
		event model.PurchaseEvent
		want  []string
	}{
		{name: "edited down", event: testEvent(model.PurchaseEventUpdated, -1), want: []string{"Purchase edited", "-1 session"}},
		{name: "deleted", event: testEvent(model.PurchaseEventDeleted, -5), want: []string{"Purchase deleted", "-5 sessions"}},
		{name: "no change", event: testEvent(model.PurchaseEventUpdated, 0), want: []string{"no change"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := events.FormatEvent(tt.event)
			for _, w := range tt.want {
				assert.True(t, strings.Contains(text, w), "missing %q in %q", w, text)
			}
		})
	}

	ev := testEvent(model.PurchaseEventRecorded, 1)
	ev.ClientEmail = "<script>@example.com"
	assert.Contains(t, events.FormatEvent(ev), "&lt;script&gt;")
}

type stubPublisher struct {
	name  string
	err   error
	calls int
}

func (s *stubPublisher) Name() string {
	return s.name
}

func (s *stubPublisher) Publish(context.Context, model.PurchaseEvent) error {
	s.calls++
	return s.err
}

func TestSink_FansOut(t *testing.T) {
	failing := &stubPublisher{name: "kafka", err: model.ErrNetwork}
	ok := &stubPublisher{name: "telegram"}
	sink := events.NewSink(failing, nil, ok)
	assert.Equal(t, 2, sink.Len())

	err := sink.Publish(context.Background(), testEvent(model.PurchaseEventRecorded, 5))
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)

	assert.NoError(t, events.NewSink().Publish(context.Background(), testEvent(model.PurchaseEventRecorded, 1)))
}
