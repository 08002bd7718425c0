// Package ticket defines customer support tickets.
package ticket

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// Category routes a ticket to the right greeting and team.
type Category string

const (
	CategoryRepair  Category = "REPAIR_QUESTION"
	CategoryOrder   Category = "ORDER_QUESTION"
	CategoryQuote   Category = "PRICE_QUOTE"
	CategoryGeneral Category = "GENERAL"
)

// Attachment is an uploaded file referenced by a ticket message.
type Attachment struct {
	URL      string `json:"url" validate:"required,url"`
	Name     string `json:"name" validate:"required,max=255"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Message is one entry in a ticket conversation.
type Message struct {
	ID          string       `json:"id"`
	TicketID    string       `json:"ticketId"`
	Sender      string       `json:"sender"`
	Body        string       `json:"message"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Ticket is a customer conversation with the shop.
type Ticket struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenantId"`
	CaseID        string    `json:"caseId"`
	SessionID     string    `json:"sessionId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	Category      Category  `json:"category"`
	Subject       string    `json:"subject"`
	Status        Status    `json:"status"`
	Messages      []Message `json:"messages,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateRequest opens a ticket from the storefront.
type CreateRequest struct {
	SessionID      string       `json:"sessionId" validate:"required,max=100"`
	CustomerName   string       `json:"customerName" validate:"required,max=200"`
	CustomerEmail  string       `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerPhone  string       `json:"customerPhone,omitempty" validate:"omitempty,max=50"`
	Category       Category     `json:"category" validate:"required,oneof=REPAIR_QUESTION ORDER_QUESTION PRICE_QUOTE GENERAL"`
	Subject        string       `json:"subject" validate:"required,max=300"`
	InitialMessage string       `json:"initialMessage" validate:"required,max=5000"`
	Attachments    []Attachment `json:"attachments,omitempty" validate:"max=10,dive"`
}

// MessageRequest appends to a ticket conversation.
type MessageRequest struct {
	SessionID   string       `json:"sessionId,omitempty"`
	Message     string       `json:"message" validate:"required,max=5000"`
	Attachments []Attachment `json:"attachments,omitempty" validate:"max=10,dive"`
}

// UpdateRequest changes a ticket's status.
type UpdateRequest struct {
	Status Status `json:"status" validate:"required,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
}

// CaseID builds a human readable case number.
func CaseID(year, seq int, suffix string) string {
	return fmt.Sprintf("SP-%d-%04d-%s", year, seq, suffix)
}

// Greeting returns the automatic first reply for a new ticket.
func Greeting(shopName, customerName string, c Category) string {
	switch c {
	case CategoryRepair:
		return fmt.Sprintf("Hallo %s! Bedankt voor uw reparatievraag bij %s. Een van onze technici reageert zo snel mogelijk.", customerName, shopName)
	case CategoryOrder:
		return fmt.Sprintf("Hallo %s! Bedankt voor uw vraag over uw bestelling. We bekijken dit zo snel mogelijk.", customerName)
	case CategoryQuote:
		return fmt.Sprintf("Hallo %s! Bedankt voor uw offerteaanvraag. We sturen u zo snel mogelijk een prijsopgave.", customerName)
	default:
		return fmt.Sprintf("Hallo %s! Bedankt voor uw bericht aan %s. We reageren zo snel mogelijk.", customerName, shopName)
	}
}

// Event is pushed to staff dashboards when a ticket changes.
type Event struct {
	Type     string  `json:"type"`
	TenantID string  `json:"-"`
	Ticket   *Ticket `json:"ticket"`
}

// Event types.
const (
	EventCreated = "ticket.created"
	EventMessage = "ticket.message"
	EventUpdated = "ticket.updated"
)
