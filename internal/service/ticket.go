package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/ServicePulse/internal/domain"
	"github.com/Strob0t/ServicePulse/internal/domain/audit"
	"github.com/Strob0t/ServicePulse/internal/domain/ticket"
	"github.com/Strob0t/ServicePulse/internal/port/broadcast"
	"github.com/Strob0t/ServicePulse/internal/port/database"
	"github.com/Strob0t/ServicePulse/internal/port/messagequeue"
)

// Message senders.
const (
	SenderCustomer = "customer"
	SenderBot      = "bot"
)

// TicketStore is what the ticket service needs from storage.
type TicketStore interface {
	database.TicketRepository
	database.AuditRepository
}

// ticketEventWire carries a ticket event between replicas.
type ticketEventWire struct {
	TenantID string         `json:"tenantId"`
	Type     string         `json:"type"`
	Ticket   *ticket.Ticket `json:"ticket"`
}

// TicketService manages support tickets and pushes changes to staff dashboards.
type TicketService struct {
	store TicketStore
	hub   broadcast.Broadcaster
	queue messagequeue.Queue
	audit auditor
	now   func() time.Time
}

// NewTicketService creates a TicketService. With a queue, events fan out
// through NATS so staff connected to any replica see them; without one
// they go straight to the local hub.
func NewTicketService(store TicketStore, hub broadcast.Broadcaster, queue messagequeue.Queue) *TicketService {
	return &TicketService{store: store, hub: hub, queue: queue, audit: auditor{repo: store}, now: time.Now}
}

// Create opens a ticket with the customer's message and an automatic greeting.
func (s *TicketService) Create(ctx context.Context, tenantID, shopName string, req ticket.CreateRequest) (*ticket.Ticket, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	now := s.now()
	n, err := s.store.CountTicketsInYear(ctx, tenantID, now.Year())
	if err != nil {
		return nil, err
	}

	t := &ticket.Ticket{
		CaseID:        ticket.CaseID(now.Year(), n+1, caseSuffix()),
		SessionID:     req.SessionID,
		CustomerName:  req.CustomerName,
		CustomerEmail: normalizeEmail(req.CustomerEmail),
		CustomerPhone: req.CustomerPhone,
		Category:      req.Category,
		Subject:       req.Subject,
		Status:        ticket.StatusOpen,
		Messages: []ticket.Message{
			{Sender: SenderCustomer, Body: req.InitialMessage, Attachments: req.Attachments},
			{Sender: SenderBot, Body: ticket.Greeting(shopName, req.CustomerName, req.Category)},
		},
	}
	if err := s.store.CreateTicket(ctx, tenantID, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	slog.InfoContext(ctx, "ticket created", "case_id", t.CaseID, "category", t.Category)
	s.emit(ctx, tenantID, ticket.EventCreated, t)
	return t, nil
}

// ListBySession returns a returning visitor's tickets.
func (s *TicketService) ListBySession(ctx context.Context, tenantID, sessionID string) ([]ticket.Ticket, error) {
	if sessionID == "" {
		return nil, invalid("sessionId is required")
	}
	return s.store.ListTicketsBySession(ctx, tenantID, sessionID)
}

// List returns the tenant's tickets, optionally filtered by status.
func (s *TicketService) List(ctx context.Context, tenantID string, status ticket.Status) ([]ticket.Ticket, error) {
	return s.store.ListTickets(ctx, tenantID, status)
}

// Get returns one ticket with its messages.
func (s *TicketService) Get(ctx context.Context, tenantID, id string) (*ticket.Ticket, error) {
	return s.store.GetTicket(ctx, tenantID, id)
}

// AddCustomerMessage appends a message from the visitor that owns the
// ticket's session. A message on a resolved or closed ticket reopens it.
func (s *TicketService) AddCustomerMessage(ctx context.Context, tenantID, id string, req ticket.MessageRequest) (*ticket.Message, error) {
	t, err := s.store.GetTicket(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.SessionID == "" || req.SessionID != t.SessionID {
		// Indistinguishable from a missing ticket for someone guessing ids.
		return nil, fmt.Errorf("ticket %s: %w", id, domain.ErrNotFound)
	}
	m, err := s.addMessage(ctx, tenantID, t, SenderCustomer, req)
	if err != nil {
		return nil, err
	}
	if t.Status == ticket.StatusResolved || t.Status == ticket.StatusClosed {
		if err := s.store.UpdateTicketStatus(ctx, tenantID, id, ticket.StatusOpen); err != nil {
			return nil, err
		}
		t.Status = ticket.StatusOpen
		slog.InfoContext(ctx, "ticket reopened by customer message", "case_id", t.CaseID)
		s.emit(ctx, tenantID, ticket.EventUpdated, t)
	}
	return m, nil
}

// AddStaffMessage appends a reply from a staff member.
func (s *TicketService) AddStaffMessage(ctx context.Context, tenantID string, actor Actor, senderName, id string, req ticket.MessageRequest) (*ticket.Message, error) {
	t, err := s.store.GetTicket(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if senderName == "" {
		senderName = "staff"
	}
	m, err := s.addMessage(ctx, tenantID, t, senderName, req)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, tenantID, actor, audit.ActionUpdate, "ticket", id, map[string]string{"message": m.ID})
	return m, nil
}

func (s *TicketService) addMessage(ctx context.Context, tenantID string, t *ticket.Ticket, sender string, req ticket.MessageRequest) (*ticket.Message, error) {
	m := &ticket.Message{TicketID: t.ID, Sender: sender, Body: req.Message, Attachments: req.Attachments}
	if err := s.store.AddTicketMessage(ctx, tenantID, m); err != nil {
		return nil, fmt.Errorf("add ticket message: %w", err)
	}
	t.Messages = append(t.Messages, *m)
	s.emit(ctx, tenantID, ticket.EventMessage, t)
	return m, nil
}

// UpdateStatus changes a ticket's status.
func (s *TicketService) UpdateStatus(ctx context.Context, tenantID string, actor Actor, id string, status ticket.Status) (*ticket.Ticket, error) {
	t, err := s.store.GetTicket(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTicketStatus(ctx, tenantID, id, status); err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	from := t.Status
	t.Status = status
	s.audit.record(ctx, tenantID, actor, audit.ActionStatus, "ticket", id, map[string]string{"from": string(from), "to": string(status)})
	s.emit(ctx, tenantID, ticket.EventUpdated, t)
	return t, nil
}

// emit publishes an event for tenantID through NATS, or to the local hub
// when no queue is configured or publishing fails.
func (s *TicketService) emit(ctx context.Context, tenantID, eventType string, t *ticket.Ticket) {
	if s.queue != nil {
		data, err := json.Marshal(ticketEventWire{TenantID: tenantID, Type: eventType, Ticket: t})
		if err == nil {
			if err = s.queue.Publish(ctx, messagequeue.SubjectTicketEvent, data); err == nil {
				return
			}
		}
		slog.WarnContext(ctx, "ticket event publish failed, delivering locally", "error", err)
	}
	if s.hub != nil {
		s.hub.BroadcastToTenant(ctx, tenantID, eventType, ticket.Event{Type: eventType, TenantID: tenantID, Ticket: t})
	}
}

// Listen relays ticket events published by any replica to the local hub.
func (s *TicketService) Listen(ctx context.Context) (func(), error) {
	if s.queue == nil || s.hub == nil {
		return func() {}, nil
	}
	return s.queue.Subscribe(ctx, messagequeue.SubjectTicketEvent, s.HandleEvent)
}

// HandleEvent decodes one relayed event and broadcasts it to the event's tenant only.
func (s *TicketService) HandleEvent(ctx context.Context, _ string, data []byte) error {
	var ev ticketEventWire
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode ticket event: %w", err)
	}
	if ev.TenantID == "" {
		return fmt.Errorf("ticket event without tenant: %w", domain.ErrTenantRequired)
	}
	s.hub.BroadcastToTenant(ctx, ev.TenantID, ev.Type, ticket.Event{Type: ev.Type, TenantID: ev.TenantID, Ticket: ev.Ticket})
	return nil
}

const suffixAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// caseSuffix returns three random characters that keep concurrent case ids distinct.
func caseSuffix() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b)
}
