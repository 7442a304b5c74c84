// Package notifier delivers order lifecycle emails. Sends are best-effort:
// callers log failures and report them as partial success, never rolling back
// the write that triggered the notification.
package notifier

import (
	"context"
	"fmt"
	"html"

	"github.com/markethall/storefront-api/internal/models"
)

// EventType identifies an order lifecycle notification.
type EventType string

const (
	EventNewOrder      EventType = "new_order"
	EventOrderApproved EventType = "order_approved"
	EventOrderRejected EventType = "order_rejected"
)

// Event is one notification to deliver. Recipient is the store operator for
// new_order and the customer for status transitions.
type Event struct {
	Type      EventType
	Recipient string
	Order     *models.Order
}

// Notifier is the outbound notification boundary. Implementations must be
// safe to call concurrently.
type Notifier interface {
	Send(ctx context.Context, ev Event) error
}

// message is a rendered notification body.
type message struct {
	Subject string
	HTML    string
	Text    string
}

// render builds the subject and bodies for an event. Customer-supplied fields
// are HTML-escaped before they reach the template.
func render(ev Event) (message, error) {
	o := ev.Order
	name := html.EscapeString(o.CustomerName)
	address := html.EscapeString(o.Address)

	switch ev.Type {
	case EventNewOrder:
		return message{
			Subject: fmt.Sprintf("New order %s", o.OrderNumber),
			HTML: fmt.Sprintf(
				"<html><body><p>A new order has been placed.</p>"+
					"<ul><li>Order: %s</li><li>Customer: %s</li><li>Delivery: %s</li>"+
					"<li>Payment: %s</li><li>Total: %.2f</li></ul>"+
					"<p>Review it in the admin dashboard.</p></body></html>",
				o.OrderNumber, name, address, o.PaymentMethod, o.TotalAmount),
			Text: fmt.Sprintf(
				"A new order has been placed.\n\nOrder: %s\nCustomer: %s\nDelivery: %s\nPayment: %s\nTotal: %.2f\n",
				o.OrderNumber, o.CustomerName, o.Address, o.PaymentMethod, o.TotalAmount),
		}, nil

	case EventOrderApproved:
		return message{
			Subject: fmt.Sprintf("Order %s confirmed", o.OrderNumber),
			HTML: fmt.Sprintf(
				"<html><body><p>Dear %s,</p>"+
					"<p>Your order %s has been confirmed and is being prepared.</p>"+
					"<p>Total: %.2f</p><p>Thank you for shopping with us.</p></body></html>",
				name, o.OrderNumber, o.TotalAmount),
			Text: fmt.Sprintf(
				"Dear %s,\n\nYour order %s has been confirmed and is being prepared.\nTotal: %.2f\n\nThank you for shopping with us.\n",
				o.CustomerName, o.OrderNumber, o.TotalAmount),
		}, nil

	case EventOrderRejected:
		return message{
			Subject: fmt.Sprintf("Order %s could not be processed", o.OrderNumber),
			HTML: fmt.Sprintf(
				"<html><body><p>Dear %s,</p>"+
					"<p>Unfortunately your order %s could not be processed. "+
					"If you were charged, the amount will be refunded.</p>"+
					"<p>Please contact support with any questions.</p></body></html>",
				name, o.OrderNumber),
			Text: fmt.Sprintf(
				"Dear %s,\n\nUnfortunately your order %s could not be processed. If you were charged, the amount will be refunded.\n\nPlease contact support with any questions.\n",
				o.CustomerName, o.OrderNumber),
		}, nil
	}

	return message{}, fmt.Errorf("unknown notification event type: %q", ev.Type)
}
