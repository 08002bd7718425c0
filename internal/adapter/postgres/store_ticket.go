package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/ServicePulse/internal/domain/ticket"
)

const ticketColumns = `id, tenant_id, case_id, session_id, customer_name, customer_email, customer_phone,
	category, subject, status, created_at, updated_at`

func scanTicket(row scannable) (ticket.Ticket, error) {
	var t ticket.Ticket
	err := row.Scan(&t.ID, &t.TenantID, &t.CaseID, &t.SessionID, &t.CustomerName, &t.CustomerEmail, &t.CustomerPhone,
		&t.Category, &t.Subject, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanMessage(row scannable) (ticket.Message, error) {
	var m ticket.Message
	var attachments []byte
	if err := row.Scan(&m.ID, &m.TicketID, &m.Sender, &m.Body, &attachments, &m.CreatedAt); err != nil {
		return m, err
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			return m, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return m, nil
}

func (s *Store) ListTickets(ctx context.Context, tenantID string, status ticket.Status) ([]ticket.Ticket, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY updated_at DESC`, tenantID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return collect(rows, scanTicket)
}

func (s *Store) ListTicketsBySession(ctx context.Context, tenantID, sessionID string) ([]ticket.Ticket, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE tenant_id = $1 AND session_id = $2
		 ORDER BY created_at DESC`, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list tickets by session: %w", err)
	}
	tickets, err := collect(rows, scanTicket)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].Messages, err = s.listMessages(ctx, tenantID, tickets[i].ID); err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

// GetTicket returns a ticket with its messages in chronological order.
func (s *Store) GetTicket(ctx context.Context, tenantID, id string) (*ticket.Ticket, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	t, err := scanTicket(s.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get ticket %s", id)
	}
	if t.Messages, err = s.listMessages(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) listMessages(ctx context.Context, tenantID, ticketID string) ([]ticket.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ticket_id, sender, body, attachments, created_at FROM ticket_messages
		 WHERE ticket_id = $1 AND tenant_id = $2 ORDER BY created_at`, ticketID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list ticket messages: %w", err)
	}
	return collect(rows, scanMessage)
}

func (s *Store) CountTicketsInYear(ctx context.Context, tenantID string, year int) (int, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM tickets WHERE tenant_id = $1 AND extract(year FROM created_at) = $2`,
		tenantID, year).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

// CreateTicket inserts t and its initial messages atomically.
func (s *Store) CreateTicket(ctx context.Context, tenantID string, t *ticket.Ticket) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	t.ID = newID()
	t.TenantID = tenantID
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO tickets (id, tenant_id, case_id, session_id, customer_name, customer_email, customer_phone,
			                      category, subject, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at, updated_at`,
			t.ID, tenantID, t.CaseID, t.SessionID, t.CustomerName, t.CustomerEmail, t.CustomerPhone,
			t.Category, t.Subject, t.Status,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return writeErr(err, "create ticket")
		}
		for i := range t.Messages {
			m := &t.Messages[i]
			m.TicketID = t.ID
			if err := insertMessage(ctx, tx, tenantID, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddTicketMessage appends m if its ticket belongs to tenantID.
func (s *Store) AddTicketMessage(ctx context.Context, tenantID string, m *ticket.Message) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE tickets SET updated_at = now() WHERE id = $1 AND tenant_id = $2`, m.TicketID, tenantID)
		if err := execExpectOne(tag, err, "touch ticket %s", m.TicketID); err != nil {
			return err
		}
		return insertMessage(ctx, tx, tenantID, m)
	})
}

func insertMessage(ctx context.Context, tx pgx.Tx, tenantID string, m *ticket.Message) error {
	attachments, err := json.Marshal(orEmpty(m.Attachments))
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	m.ID = newID()
	err = tx.QueryRow(ctx,
		`INSERT INTO ticket_messages (id, ticket_id, tenant_id, sender, body, attachments)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		m.ID, m.TicketID, tenantID, m.Sender, m.Body, attachments,
	).Scan(&m.CreatedAt)
	if err != nil {
		return writeErr(err, "insert ticket message")
	}
	return nil
}

func (s *Store) UpdateTicketStatus(ctx context.Context, tenantID, id string, status ticket.Status) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tickets SET status = $3, updated_at = now() WHERE id = $1 AND tenant_id = $2`, id, tenantID, status)
	return execExpectOne(tag, err, "update ticket %s", id)
}
