package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) (*Notifier, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	n, err := New(rec, Config{AppName: "Storeblog", OTPTTL: 20 * time.Minute, ResetTTL: 20 * time.Minute})
	require.NoError(t, err)
	return n, rec
}

func TestSendOTP(t *testing.T) {
	n, rec := newTestNotifier(t)
	user := models.User{Username: "ayesha", Email: "ayesha@example.com"}

	require.NoError(t, n.SendOTP(context.Background(), user, "482913"))

	msg, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "ayesha@example.com", msg.To)
	assert.Contains(t, msg.HTML, "482913")
	assert.Contains(t, msg.Text, "482913")
	assert.Contains(t, msg.Text, "20m0s")
}

func TestSendPasswordResetEscapesLinkInHTML(t *testing.T) {
	n, rec := newTestNotifier(t)
	user := models.User{Username: "bilal", Email: "bilal@example.com"}
	link := "https://shop.example.com/reset-password?token=abc&x=1"

	require.NoError(t, n.SendPasswordReset(context.Background(), user, link))

	msg, _ := rec.Last()
	assert.Contains(t, msg.Text, link)
	assert.Contains(t, msg.HTML, "token=abc&amp;x=1")
}

func TestSendOrderConfirmationListsLines(t *testing.T) {
	n, rec := newTestNotifier(t)
	order := models.Checkout{
		Name:          "Sara",
		Email:         "sara@example.com",
		Slug:          "sara-1700000000000",
		PaymentMethod: models.PaymentCashOnDelivery,
		Products: []models.OrderItem{
			{Name: "Red Shoe", Quantity: 2, UnitPrice: 49.5},
			{Name: "Sock", Quantity: 1, UnitPrice: 3},
		},
		TotalAmount: 102,
	}

	require.NoError(t, n.SendOrderConfirmation(context.Background(), order))

	msg, _ := rec.Last()
	assert.Equal(t, "Order confirmation sara-1700000000000", msg.Subject)
	assert.Contains(t, msg.Text, "Red Shoe x2 @ 49.50")
	assert.Contains(t, msg.Text, "Total: 102.00")
	assert.Contains(t, msg.HTML, "Cash on Delivery")
}

func TestSendAccountStatusSubject(t *testing.T) {
	n, rec := newTestNotifier(t)

	require.NoError(t, n.SendAccountStatus(context.Background(), models.User{Email: "a@example.com", IsActive: false}))
	msg, _ := rec.Last()
	assert.Equal(t, "Your account has been deactivated", msg.Subject)

	require.NoError(t, n.SendAccountStatus(context.Background(), models.User{Email: "a@example.com", IsActive: true}))
	msg, _ = rec.Last()
	assert.Equal(t, "Your account has been activated", msg.Subject)
}

func TestRecorderError(t *testing.T) {
	n, rec := newTestNotifier(t)
	rec.SetErr(errors.New("relay down"))

	err := n.SendRoleChanged(context.Background(), models.User{Email: "a@example.com", Role: models.RoleAdmin})
	assert.EqualError(t, err, "relay down")
	assert.Empty(t, rec.Sent())
}
