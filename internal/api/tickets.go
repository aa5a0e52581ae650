package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/projecthub/internal/auth"
)

// defaultTicketTTL is how long a WebSocket ticket stays redeemable.
const defaultTicketTTL = 60 * time.Second

// ticketBytes is the number of random bytes in a ticket.
const ticketBytes = 32

// errTicketInvalid covers unknown, expired and already-redeemed tickets.
var errTicketInvalid = errors.New("invalid or expired ticket")

// TicketStore issues single-use WebSocket tickets bound to a caller.
type TicketStore interface {
	Issue(ctx context.Context, caller auth.Caller) (string, error)
	// Redeem consumes a ticket. A ticket can be redeemed at most once.
	Redeem(ctx context.Context, ticket string) (auth.Caller, error)
}

func generateTicket() (string, error) {
	b := make([]byte, ticketBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating ticket: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MemoryTicketStore keeps tickets in process memory. Use RedisTicketStore
// when several API instances sit behind one load balancer.
type MemoryTicketStore struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	tickets map[string]ticketEntry
}

type ticketEntry struct {
	caller    auth.Caller
	expiresAt time.Time
}

// NewMemoryTicketStore creates an in-memory store.
func NewMemoryTicketStore(ttl time.Duration) *MemoryTicketStore {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	return &MemoryTicketStore{ttl: ttl, now: time.Now, tickets: make(map[string]ticketEntry)}
}

// Issue stores a new ticket for caller.
func (m *MemoryTicketStore) Issue(_ context.Context, caller auth.Caller) (string, error) {
	ticket, err := generateTicket()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.tickets[ticket] = ticketEntry{caller: caller, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return ticket, nil
}

// Redeem removes the ticket and returns its caller if it had not expired.
func (m *MemoryTicketStore) Redeem(_ context.Context, ticket string) (auth.Caller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.tickets[ticket]
	if !ok {
		return auth.Caller{}, errTicketInvalid
	}
	delete(m.tickets, ticket)

	if !m.now().Before(entry.expiresAt) {
		return auth.Caller{}, errTicketInvalid
	}
	return entry.caller, nil
}

// Len returns the number of unredeemed tickets, expired ones included.
func (m *MemoryTicketStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

// Sweep drops expired tickets.
func (m *MemoryTicketStore) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for ticket, entry := range m.tickets {
		if !now.Before(entry.expiresAt) {
			delete(m.tickets, ticket)
		}
	}
}

// Run sweeps expired tickets every TTL until ctx is cancelled.
func (m *MemoryTicketStore) Run(ctx context.Context) {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// RedisTicketStore keeps tickets in Redis with a native TTL and redeems
// them atomically with GETDEL.
type RedisTicketStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisTicketStore creates a store on client. Keys are prefix+ticket.
func NewRedisTicketStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisTicketStore {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	if prefix == "" {
		prefix = "projecthub:ws-ticket:"
	}
	return &RedisTicketStore{client: client, prefix: prefix, ttl: ttl}
}

// Issue stores a new ticket for caller.
func (s *RedisTicketStore) Issue(ctx context.Context, caller auth.Caller) (string, error) {
	ticket, err := generateTicket()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(caller)
	if err != nil {
		return "", fmt.Errorf("encoding ticket: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+ticket, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing ticket: %w", err)
	}
	return ticket, nil
}

// Redeem atomically fetches and deletes the ticket.
func (s *RedisTicketStore) Redeem(ctx context.Context, ticket string) (auth.Caller, error) {
	data, err := s.client.GetDel(ctx, s.prefix+ticket).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Caller{}, errTicketInvalid
		}
		return auth.Caller{}, fmt.Errorf("redeeming ticket: %w", err)
	}

	var caller auth.Caller
	if err := json.Unmarshal(data, &caller); err != nil {
		return auth.Caller{}, fmt.Errorf("decoding ticket: %w", err)
	}
	return caller, nil
}

// HealthCheck pings Redis.
func (s *RedisTicketStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}
	return nil
}
