package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	"github.com/oksasatya/go-ddd-identity/internal/domain/service"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer"
)

type fakeTokens struct {
	mu sync.Mutex
	n  int
}

func (f *fakeTokens) next() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return f.n
}

func (f *fakeTokens) GenerateAccessToken(userID, email, role string) (string, error) {
	return fmt.Sprintf("access|%s|%s|%s|%d", userID, email, role, f.next()), nil
}

func (f *fakeTokens) GenerateRefreshToken(userID string) (string, error) {
	return fmt.Sprintf("refresh|%s|%d", userID, f.next()), nil
}

func (f *fakeTokens) VerifyAccessToken(token string) (*service.TokenPayload, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 5 || parts[0] != "access" {
		return nil, service.ErrInvalidToken
	}
	return &service.TokenPayload{UserID: parts[1], Email: parts[2], Role: parts[3]}, nil
}

func (f *fakeTokens) VerifyRefreshToken(token string) (string, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "refresh" {
		return "", service.ErrInvalidToken
	}
	return parts[1], nil
}

func (f *fakeTokens) AccessTokenTTL() time.Duration  { return time.Hour }
func (f *fakeTokens) RefreshTokenTTL() time.Duration { return 7 * 24 * time.Hour }

type fakePasswords struct{}

func (fakePasswords) Hash(p vo.Password) (string, error) { return "hashed:" + p.Value(), nil }

func (fakePasswords) Verify(plain, hash string) (bool, error) { return hash == "hashed:"+plain, nil }

type fakeProvider struct {
	profile     *ProviderProfile
	err         error
	exchanged   []string
	verified    []string
	fetchedWith []string
}

func (f *fakeProvider) VerifyIdentityToken(_ context.Context, token string) (*ProviderProfile, error) {
	f.verified = append(f.verified, token)
	return f.profile, f.err
}

func (f *fakeProvider) ExchangeAuthorizationCode(_ context.Context, code string) (ProviderTokens, error) {
	f.exchanged = append(f.exchanged, code)
	if f.err != nil {
		return ProviderTokens{}, f.err
	}
	return ProviderTokens{AccessToken: "google-access"}, nil
}

func (f *fakeProvider) FetchProfile(_ context.Context, accessToken string) (*ProviderProfile, error) {
	f.fetchedWith = append(f.fetchedWith, accessToken)
	return f.profile, f.err
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name())
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type memSessions struct {
	mu   sync.Mutex
	data map[string]Session
}

func newMemSessions() *memSessions { return &memSessions{data: map[string]Session{}} }

func (m *memSessions) Put(_ context.Context, s Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.UserID] = s
	return nil
}

func (m *memSessions) Update(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[s.UserID]; !ok {
		return ErrSessionNotFound
	}
	m.data[s.UserID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[userID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	return nil
}

type memVerifications struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemVerifications() *memVerifications { return &memVerifications{data: map[string]string{}} }

func (m *memVerifications) Save(_ context.Context, token, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[token] = userID
	return nil
}

func (m *memVerifications) Consume(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.data[token]
	if !ok {
		return "", ErrVerificationTokenNotFound
	}
	delete(m.data, token)
	return id, nil
}

type fakeEmails struct {
	jobs []mailer.EmailJob
}

func (f *fakeEmails) EnqueueEmail(_ context.Context, job mailer.EmailJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeAvatars struct {
	paths []string
	err   error
}

func (f *fakeAvatars) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.paths = append(f.paths, objectPath)
	return "https://storage.example.com/bucket/" + objectPath, nil
}

type fakeSearch struct {
	query string
	size  int
}

func (f *fakeSearch) Search(_ context.Context, query string, size int) ([]SearchHit, error) {
	f.query, f.size = query, size
	return []SearchHit{{ID: "1", Email: "hit@example.com"}}, nil
}

type countingObserver struct {
	counts map[string]int
}

func (o *countingObserver) ObserveAuth(method, outcome string) {
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[method+":"+outcome]++
}

var errBoom = errors.New("boom")

// failingCredentials fails SaveCredential while err is set.
type failingCredentials struct {
	*memory.UserRepository
	err error
}

func (f *failingCredentials) SaveCredential(ctx context.Context, c repository.Credential) error {
	if f.err != nil {
		return f.err
	}
	return f.UserRepository.SaveCredential(ctx, c)
}

// logoutAfterGet deletes the session right after it is read, as a concurrent
// logout would.
type logoutAfterGet struct {
	*memSessions
}

func (l *logoutAfterGet) Get(ctx context.Context, userID string) (Session, error) {
	sess, err := l.memSessions.Get(ctx, userID)
	if err == nil {
		_ = l.memSessions.Delete(ctx, userID)
	}
	return sess, err
}
