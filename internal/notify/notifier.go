package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*
var templateFS embed.FS

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	AppName  string
	OTPTTL   time.Duration
	ResetTTL time.Duration
}

// Notifier renders the transactional templates and hands them to a Sender.
type Notifier struct {
	sender Sender
	cfg    Config
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func New(sender Sender, cfg Config) (*Notifier, error) {
	funcs := map[string]any{"money": money}

	html, err := htmltemplate.New("mail").Funcs(funcs).ParseFS(templateFS, "templates/mail.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.New("mail").Funcs(funcs).ParseFS(templateFS, "templates/mail.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}

	return &Notifier{sender: sender, cfg: cfg, html: html, text: text}, nil
}

type templateData struct {
	App   string
	User  models.User
	Order models.Checkout
	Code  string
	Link  string
	TTL   string
}

func (n *Notifier) render(name string, data templateData) (string, string, error) {
	data.App = n.cfg.AppName

	var html, text bytes.Buffer
	if err := n.html.ExecuteTemplate(&html, name, data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	if err := n.text.ExecuteTemplate(&text, name, data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	return html.String(), text.String(), nil
}

func (n *Notifier) send(ctx context.Context, to, subject, name string, data templateData) error {
	html, text, err := n.render(name, data)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{To: to, Subject: subject, HTML: html, Text: text})
}

func (n *Notifier) SendOTP(ctx context.Context, user models.User, otp string) error {
	return n.send(ctx, user.Email, "Your verification code", "otp",
		templateData{User: user, Code: otp, TTL: n.cfg.OTPTTL.String()})
}

func (n *Notifier) SendPasswordReset(ctx context.Context, user models.User, link string) error {
	return n.send(ctx, user.Email, "Reset your password", "reset",
		templateData{User: user, Link: link, TTL: n.cfg.ResetTTL.String()})
}

func (n *Notifier) SendAccountStatus(ctx context.Context, user models.User) error {
	subject := "Your account has been deactivated"
	if user.IsActive {
		subject = "Your account has been activated"
	}
	return n.send(ctx, user.Email, subject, "account_status", templateData{User: user})
}

func (n *Notifier) SendRoleChanged(ctx context.Context, user models.User) error {
	return n.send(ctx, user.Email, "Your role has changed", "role_changed", templateData{User: user})
}

func (n *Notifier) SendOrderConfirmation(ctx context.Context, order models.Checkout) error {
	return n.send(ctx, order.Email, "Order confirmation "+order.Slug, "order_confirmation", templateData{Order: order})
}

func (n *Notifier) SendOrderStatus(ctx context.Context, order models.Checkout) error {
	subject := fmt.Sprintf("Order %s is %s", order.Slug, order.OrderStatus)
	return n.send(ctx, order.Email, subject, "order_status", templateData{Order: order})
}
