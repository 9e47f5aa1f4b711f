// Package notify delivers budget alerts produced by the ledger.
package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"masarify/internal/amqp"
	"masarify/internal/core"
	"masarify/internal/ledger"
	"masarify/internal/log"
)

// Notifier surfaces alert events to the user.
type Notifier interface {
	Notify(ctx context.Context, lang core.Language, events []ledger.AlertEvent) error
}

// Message is the rendered text of one alert.
type Message struct {
	Title string
	Body  string
}

var titles = map[core.Language]string{
	core.English: "Warning",
	core.Arabic:  "تنبيه",
}

// Render produces the notification text for e.
func Render(e ledger.AlertEvent, categoryName string, lang core.Language) Message {
	title, ok := titles[lang]
	if !ok {
		title = titles[core.English]
	}
	pct := int(math.Round(e.Percent))

	var body string
	switch {
	case e.Scope == ledger.Global && e.Severity == ledger.Exceeded:
		body = "You have exceeded your monthly budget!"
	case e.Scope == ledger.Global:
		body = fmt.Sprintf("You have used %d%% of your monthly budget.", pct)
	case e.Severity == ledger.Exceeded:
		body = fmt.Sprintf("You have exceeded your %s budget!", categoryName)
	default:
		body = fmt.Sprintf("You have used %d%% of your %s budget.", pct, categoryName)
	}
	return Message{Title: title, Body: body}
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *log.StructuredLogger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: log.NewStructuredLogger(logger)}
}

func (n *LogNotifier) Notify(ctx context.Context, _ core.Language, events []ledger.AlertEvent) error {
	for _, e := range events {
		n.logger.LogAlert(ctx, string(e.Severity), string(e.Scope), e.CategoryID, e.Percent)
	}
	return nil
}

// AMQPNotifier hands alerts to the worker through the budget.alert route.
type AMQPNotifier struct {
	client     *amqp.Client
	categories func() []core.Category
}

// NewAMQPNotifier publishes on client; categories resolves names for message bodies.
func NewAMQPNotifier(client *amqp.Client, categories func() []core.Category) *AMQPNotifier {
	return &AMQPNotifier{client: client, categories: categories}
}

func (n *AMQPNotifier) Notify(ctx context.Context, lang core.Language, events []ledger.AlertEvent) error {
	var cats []core.Category
	if n.categories != nil {
		cats = n.categories()
	}
	var errs []error
	for _, e := range events {
		msg := Render(e, core.CategoryName(cats, e.CategoryID, lang), lang)
		err := n.client.PublishAlert(ctx, &amqp.AlertMessage{
			Severity:   string(e.Severity),
			Scope:      string(e.Scope),
			CategoryID: e.CategoryID,
			Percent:    e.Percent,
			Title:      msg.Title,
			Body:       msg.Body,
			Language:   string(lang),
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Gate only forwards alerts while permission has been granted.
type Gate struct {
	next    Notifier
	granted func() bool
}

func NewGate(next Notifier, granted func() bool) *Gate {
	return &Gate{next: next, granted: granted}
}

func (g *Gate) Notify(ctx context.Context, lang core.Language, events []ledger.AlertEvent) error {
	if len(events) == 0 || g.granted == nil || !g.granted() {
		return nil
	}
	return g.next.Notify(ctx, lang, events)
}

// Multi fans alerts out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, lang core.Language, events []ledger.AlertEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, lang, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every alert.
type Nop struct{}

func (Nop) Notify(context.Context, core.Language, []ledger.AlertEvent) error { return nil }
