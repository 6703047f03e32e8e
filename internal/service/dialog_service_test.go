package service

import (
	"context"
	"testing"

	"lavka/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDialogService(t *testing.T) *DialogService {
	db := setupTestDB(t)
	logger := zerolog.Nop()
	return NewDialogService(db, nil, &logger)
}

func TestLeastLoadedAdmin(t *testing.T) {
	svc := newDialogService(t)
	ctx := context.Background()

	// у 500 один непрочитанный вопрос, у 600 — ни одного
	d1, err := svc.StartDialog(ctx, 100, 500)
	require.NoError(t, err)
	_, err = svc.RecordMessage(ctx, d1.ID, 100, "вопрос")
	require.NoError(t, err)
	_, err = svc.StartDialog(ctx, 300, 600)
	require.NoError(t, err)

	admin, err := svc.LeastLoadedAdmin(ctx, []int64{500, 600})
	require.NoError(t, err)
	assert.Equal(t, int64(600), admin)
}

func TestLeastLoadedAdmin_ReadDialogsDoNotCount(t *testing.T) {
	svc := newDialogService(t)
	ctx := context.Background()

	// у 500 один непрочитанный диалог, у 600 два, но оба отвечены
	d1, err := svc.StartDialog(ctx, 100, 500)
	require.NoError(t, err)
	_, err = svc.RecordMessage(ctx, d1.ID, 100, "жду ответа")
	require.NoError(t, err)

	for _, userID := range []int64{200, 300} {
		d, err := svc.StartDialog(ctx, userID, 600)
		require.NoError(t, err)
		_, err = svc.RecordMessage(ctx, d.ID, userID, "вопрос")
		require.NoError(t, err)
		_, err = svc.RecordMessage(ctx, d.ID, 600, "ответ")
		require.NoError(t, err)
	}

	admin, err := svc.LeastLoadedAdmin(ctx, []int64{500, 600})
	require.NoError(t, err)
	assert.Equal(t, int64(600), admin)
}

func TestLeastLoadedAdmin_TiePicksFirst(t *testing.T) {
	svc := newDialogService(t)

	admin, err := svc.LeastLoadedAdmin(context.Background(), []int64{500, 600})
	require.NoError(t, err)
	assert.Equal(t, int64(500), admin)
}

func TestLeastLoadedAdmin_NoAdmins(t *testing.T) {
	svc := newDialogService(t)

	_, err := svc.LeastLoadedAdmin(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAdmins)
}

func TestRecordMessage_PublishesClientEvent(t *testing.T) {
	db := setupTestDB(t)
	logger := zerolog.Nop()
	bus := &mockEventBus{}
	svc := NewDialogService(db, bus, &logger)
	ctx := context.Background()

	d, err := svc.StartDialog(ctx, 100, 500)
	require.NoError(t, err)

	bus.On("PublishJSON", events.EventDialogMessage, mock.Anything).Return(nil).Once()

	// сообщение клиента уходит на шину, ответ оператора — нет
	_, err = svc.RecordMessage(ctx, d.ID, 100, "вопрос")
	require.NoError(t, err)
	_, err = svc.RecordMessage(ctx, d.ID, 500, "ответ")
	require.NoError(t, err)

	bus.AssertExpectations(t)
}

func TestStartDialog_SamePairReturnsExisting(t *testing.T) {
	svc := newDialogService(t)
	ctx := context.Background()

	d1, err := svc.StartDialog(ctx, 100, 500)
	require.NoError(t, err)
	d2, err := svc.StartDialog(ctx, 100, 500)
	require.NoError(t, err)
	assert.Equal(t, d1.ID, d2.ID)
}

func TestRecordMessageAndHistory(t *testing.T) {
	svc := newDialogService(t)
	ctx := context.Background()

	d, err := svc.StartDialog(ctx, 100, 500)
	require.NoError(t, err)

	_, err = svc.RecordMessage(ctx, d.ID, 100, "когда доставка?")
	require.NoError(t, err)

	unread, err := svc.UnreadDialogs(ctx, 500, 10, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	_, err = svc.RecordMessage(ctx, d.ID, 500, "завтра")
	require.NoError(t, err)

	unread, err = svc.UnreadDialogs(ctx, 500, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	history, err := svc.History(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "когда доставка?", history[0].Content)
}
