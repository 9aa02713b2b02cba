package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/model"
	"github.com/iliyamo/campaign-tracker/internal/queue"
	"github.com/iliyamo/campaign-tracker/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc    *Services
	mem    *repository.MemoryStore
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemoryStore()
	events := &recordingPublisher{}
	var seq int
	var mu sync.Mutex
	svc := New(Deps{
		Stores: MemoryStores(mem),
		Tokens: TokenConfig{Secret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost},
		Events: events,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%03d", seq)
		},
	})
	return &fixture{svc: svc, mem: mem, events: events}
}

// user registers an account and forces the role the test needs.
func (f *fixture) user(t *testing.T, email string, role model.Role) access.Session {
	t.Helper()
	ctx := context.Background()
	_, s, err := f.svc.Identity.Register(ctx, RegisterInput{Email: email, Password: "password1", Name: email})
	require.NoError(t, err)
	if role != model.RoleNew {
		require.NoError(t, f.mem.Profiles().SetRole(ctx, s.UID, role, true))
	}
	s, err = f.svc.Access.Resolve(ctx, s.Identity)
	require.NoError(t, err)
	return s
}

func price(v float64) *float64 { return &v }

func videoInput(channel string) VideoInput {
	return VideoInput{
		Channel: channel, VideoLink: "https://youtube.com/watch?v=1", Status: model.VideoLive,
		Price: price(5000), Brand: "Acme", Platform: model.PlatformYouTube,
		ContactInfo: "agent@acme.io", Date: "2024-05-01",
	}
}

func isAuthz(t *testing.T, err error) {
	t.Helper()
	var ae *AuthorizationError
	assert.True(t, errors.As(err, &ae), "expected AuthorizationError, got %v", err)
}

func TestFirstSignInCreatesNewProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, s, err := f.svc.Identity.Register(ctx, RegisterInput{Email: "New@Example.com", Password: "password1", Name: "Nia", Phone: "555"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, model.RoleNew, s.Role)
	assert.False(t, s.Suspended)

	p, err := f.mem.Profiles().Get(ctx, s.UID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleNew, p.Role)
	assert.False(t, p.Suspended)
	assert.Equal(t, "new@example.com", p.Email)
	assert.Equal(t, "555", p.Phone)
	assert.Contains(t, f.events.types(), queue.MemberJoined)

	// Signing in again never resets the profile.
	require.NoError(t, f.mem.Profiles().SetRole(ctx, s.UID, model.RoleWorker, true))
	_, s, err = f.svc.Identity.SignIn(ctx, LoginInput{Email: "new@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleWorker, s.Role)
}

func TestResolveAnonymous(t *testing.T) {
	f := newFixture(t)
	s, err := f.svc.Access.Resolve(context.Background(), access.Identity{})
	require.NoError(t, err)
	assert.Equal(t, model.Role(""), s.Role)
	assert.Empty(t, s.Capabilities())
}

func TestWorkerCreateInitialisesStatusAndPayment(t *testing.T) {
	f := newFixture(t)
	w := f.user(t, "w@example.com", model.RoleWorker)

	v, err := f.svc.Videos.Create(context.Background(), w, videoInput("ChX"))
	require.NoError(t, err)
	assert.Equal(t, w.UID, v.OwnerUID)
	assert.Equal(t, "w@example.com", v.OwnerEmail)
	assert.Equal(t, model.PaymentPending, v.Payment)
	assert.Equal(t, model.VideoPending, v.Status, "submitted status is ignored")
	assert.False(t, v.DeletionPending)
	assert.Equal(t, 5000.0, v.Price)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	w := f.user(t, "w@example.com", model.RoleWorker)

	in := videoInput("")
	in.Price = nil
	in.Platform = "tiktok"
	in.Date = "01/05/2024"
	_, err := f.svc.Videos.Create(context.Background(), w, in)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "is required", ve.Fields["channel"])
	assert.Equal(t, "is required", ve.Fields["price"])
	assert.Contains(t, ve.Fields["platform"], "youtube")
	assert.Contains(t, ve.Fields["date"], "YYYY-MM-DD")

	in = videoInput("ChX")
	in.Price = price(-1)
	_, err = f.svc.Videos.Create(context.Background(), w, in)
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "price")
}

func TestNewUserBlockedUntilApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	u := f.user(t, "u@example.com", model.RoleNew)

	_, err := f.svc.Videos.Create(ctx, u, videoInput("ChX"))
	isAuthz(t, err)

	p, err := f.svc.Team.Approve(ctx, admin, u.UID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleWorker, p.Role)
	assert.True(t, p.Approved)

	// The stale session still says "new"; Create re-reads the profile.
	_, err = f.svc.Videos.Create(ctx, u, videoInput("ChX"))
	require.NoError(t, err)
}

func TestSuspensionIsCheckedAtCallTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)

	v, err := f.svc.Videos.Create(ctx, w, videoInput("ChX"))
	require.NoError(t, err)

	_, err = f.svc.Team.Suspend(ctx, admin, w.UID)
	require.NoError(t, err)
	require.False(t, w.Suspended, "session resolved before the suspension")

	_, err = f.svc.Videos.Create(ctx, w, videoInput("ChY"))
	isAuthz(t, err)
	_, err = f.svc.Videos.Edit(ctx, w, v.ID, videoInput("ChZ"))
	isAuthz(t, err)
	_, err = f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	isAuthz(t, err)

	got, err := f.svc.Videos.Get(ctx, admin, v.ID)
	require.NoError(t, err)
	assert.False(t, got.DeletionPending, "suspended worker cannot freeze the record")
	n, _ := f.mem.Deletions().Count(ctx)
	assert.Zero(t, n)

	_, err = f.svc.Team.Reactivate(ctx, admin, w.UID)
	require.NoError(t, err)
	_, err = f.svc.Videos.Create(ctx, w, videoInput("ChY"))
	require.NoError(t, err)
	_, err = f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	require.NoError(t, err)
}

func TestPaidRecordFrozenForWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)

	v, err := f.svc.Videos.Create(ctx, w, videoInput("ChX"))
	require.NoError(t, err)
	_, err = f.svc.Videos.SetPayment(ctx, admin, v.ID, model.PaymentDone)
	require.NoError(t, err)

	in := videoInput("ChX")
	in.Price = price(1)
	_, err = f.svc.Videos.Edit(ctx, w, v.ID, in)
	isAuthz(t, err)
	_, err = f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	isAuthz(t, err)

	got, _ := f.svc.Videos.Get(ctx, w, v.ID)
	assert.Equal(t, 5000.0, got.Price, "record unchanged")
	assert.False(t, got.DeletionPending)

	in.Price = price(6000)
	edited, err := f.svc.Videos.Edit(ctx, admin, v.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, edited.Price)
	assert.Equal(t, model.PaymentDone, edited.Payment, "edit never touches payment")
	assert.Equal(t, w.UID, edited.OwnerUID, "edit never touches owner")
	assert.Equal(t, model.VideoLive, edited.Status)
}

func TestEditKeepsStatusWhenOmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)

	v, _ := f.svc.Videos.Create(ctx, w, videoInput("ChX"))
	in := videoInput("ChX")
	in.Status = model.VideoCancel
	_, err := f.svc.Videos.Edit(ctx, admin, v.ID, in)
	require.NoError(t, err)

	in.Status = ""
	in.Remarks = "renegotiated"
	got, err := f.svc.Videos.Edit(ctx, w, v.ID, in)
	require.NoError(t, err)
	assert.Equal(t, model.VideoCancel, got.Status)
	assert.Equal(t, "renegotiated", got.Remarks)
}

func TestWorkerCannotTouchOthersRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w1 := f.user(t, "w1@example.com", model.RoleWorker)
	w2 := f.user(t, "w2@example.com", model.RoleWorker)

	v, _ := f.svc.Videos.Create(ctx, w1, videoInput("ChX"))

	_, err := f.svc.Videos.Edit(ctx, w2, v.ID, videoInput("mine now"))
	isAuthz(t, err)
	_, err = f.svc.Videos.Get(ctx, w2, v.ID)
	isAuthz(t, err)
	_, err = f.svc.Deletions.RequestDeletion(ctx, w2, v.ID)
	isAuthz(t, err)
	isAuthz(t, f.svc.Videos.Delete(ctx, w1, v.ID))
	_, err = f.svc.Videos.SetPayment(ctx, w1, v.ID, model.PaymentDone)
	isAuthz(t, err)

	// Ownership is reported before the body is looked at.
	_, err = f.svc.Videos.SetPayment(ctx, f.user(t, "boss@example.com", model.RoleAdmin), v.ID, model.PaymentDone)
	require.NoError(t, err)
	_, err = f.svc.Videos.Edit(ctx, w2, v.ID, VideoInput{Channel: "x"})
	isAuthz(t, err)
	_, err = f.svc.Videos.Edit(ctx, w1, v.ID, VideoInput{})
	isAuthz(t, err)

	own, err := f.svc.Videos.List(ctx, w2, model.VideoQuery{})
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestDeletionRequestRejectScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)
	v, _ := f.svc.Videos.Create(ctx, w, videoInput("ChX"))

	d, err := f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, d.VideoID)
	assert.Equal(t, "ChX", d.Channel)

	got, _ := f.svc.Videos.Get(ctx, w, v.ID)
	assert.True(t, got.DeletionPending)
	reqs, err := f.svc.Deletions.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, v.ID, reqs[0].VideoID)
	one, err := f.svc.Deletions.Get(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, one.VideoID)
	_, err = f.svc.Deletions.Get(ctx, w, d.ID)
	isAuthz(t, err)

	// Frozen while pending.
	_, err = f.svc.Videos.Edit(ctx, w, v.ID, videoInput("ChX2"))
	isAuthz(t, err)
	_, err = f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	isAuthz(t, err)

	require.NoError(t, f.svc.Deletions.Reject(ctx, admin, d.ID))
	got, _ = f.svc.Videos.Get(ctx, w, v.ID)
	assert.False(t, got.DeletionPending)
	reqs, _ = f.svc.Deletions.List(ctx, admin)
	assert.Empty(t, reqs)
	_, err = f.svc.Deletions.Get(ctx, admin, d.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.Videos.Edit(ctx, w, v.ID, videoInput("ChX2"))
	require.NoError(t, err)
}

func TestApproveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)
	v, _ := f.svc.Videos.Create(ctx, w, videoInput("ChX"))
	d, err := f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Deletions.Approve(ctx, admin, d.ID))
	_, err = f.svc.Videos.Get(ctx, admin, v.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, f.svc.Deletions.Reject(ctx, admin, d.ID), "resolved id is a no-op")
	assert.NoError(t, f.svc.Deletions.Approve(ctx, admin, d.ID), "resolved id is a no-op")
	_, err = f.svc.Videos.Get(ctx, admin, v.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	isAuthz(t, f.svc.Deletions.Approve(ctx, w, d.ID))
	assert.Equal(t, 1, countType(f.events.types(), queue.DeletionApproved))
}

func TestConcurrentApproveRejectResolveOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)
	v, _ := f.svc.Videos.Create(ctx, w, videoInput("ChX"))
	d, _ := f.svc.Deletions.RequestDeletion(ctx, w, v.ID)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, f.svc.Deletions.Approve(ctx, admin, d.ID)) }()
		go func() { defer wg.Done(); assert.NoError(t, f.svc.Deletions.Reject(ctx, admin, d.ID)) }()
	}
	wg.Wait()

	types := f.events.types()
	assert.Equal(t, 1, countType(types, queue.DeletionApproved)+countType(types, queue.DeletionRejected))
	n, _ := f.mem.Deletions().Count(ctx)
	assert.Zero(t, n)
}

func countType(types []queue.EventType, want queue.EventType) int {
	n := 0
	for _, typ := range types {
		if typ == want {
			n++
		}
	}
	return n
}

func TestAdminDeleteDropsPendingRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)
	v, _ := f.svc.Videos.Create(ctx, w, videoInput("ChX"))
	_, err := f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Videos.Delete(ctx, admin, v.ID))
	reqs, _ := f.svc.Deletions.List(ctx, admin)
	assert.Empty(t, reqs)
	assert.ErrorIs(t, f.svc.Videos.Delete(ctx, admin, v.ID), repository.ErrNotFound)
}

func TestVideoCountAfterCreateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	u := f.user(t, "u@example.com", model.RoleWorker)

	var ids []string
	for i := 0; i < 3; i++ {
		v, err := f.svc.Videos.Create(ctx, u, videoInput(fmt.Sprintf("Ch%d", i)))
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}
	require.NoError(t, f.svc.Videos.Delete(ctx, admin, ids[1]))

	roster, err := f.svc.Team.Roster(ctx, admin, model.TeamQuery{Search: "u@"})
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, 2, roster[0].VideoCount)
}

func TestListQueryAndPaymentQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)

	a, _ := f.svc.Videos.Create(ctx, w, videoInput("TechReviews"))
	in := videoInput("Cooking")
	in.Date = "2024-01-01"
	b, _ := f.svc.Videos.Create(ctx, admin, in)
	_, err := f.svc.Videos.SetPayment(ctx, admin, a.ID, model.PaymentRejected)
	require.NoError(t, err)

	all, err := f.svc.Videos.List(ctx, admin, model.VideoQuery{DateOrder: model.SortAscend})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	hits, _ := f.svc.Videos.List(ctx, admin, model.VideoQuery{Search: "tech"})
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].ID)

	pending, err := f.svc.Videos.PaymentQueue(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	_, err = f.svc.Videos.PaymentQueue(ctx, w)
	isAuthz(t, err)

	_, err = f.svc.Videos.SetPayment(ctx, admin, a.ID, "paid")
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestTeamGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	other := f.user(t, "other@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)

	_, err := f.svc.Team.Approve(ctx, admin, other.UID)
	assert.ErrorIs(t, err, repository.ErrConflict)

	p, err := f.svc.Team.Approve(ctx, admin, w.UID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleWorker, p.Role, "approving a worker is a no-op")

	_, err = f.svc.Team.Suspend(ctx, admin, admin.UID)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.ErrorIs(t, f.svc.Team.Remove(ctx, admin, admin.UID), repository.ErrConflict)

	_, err = f.svc.Team.Suspend(ctx, w, admin.UID)
	isAuthz(t, err)
	_, err = f.svc.Team.Approve(ctx, admin, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.svc.Team.Remove(ctx, admin, "ghost"), repository.ErrNotFound)

	fresh := f.user(t, "fresh@example.com", model.RoleNew)
	_, err = f.svc.Team.Suspend(ctx, admin, fresh.UID)
	var ce *ConflictError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "user is not approved yet", ce.Reason)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestRemoveKeepsVideosAndBlocksResurrection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)
	v, _ := f.svc.Videos.Create(ctx, w, videoInput("ChX"))

	require.NoError(t, f.svc.Team.Remove(ctx, admin, w.UID))

	got, err := f.svc.Videos.Get(ctx, admin, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "w@example.com", got.OwnerEmail, "snapshot keeps the record attributable")

	_, err = f.svc.Access.Resolve(ctx, w.Identity)
	isAuthz(t, err)
	_, err = f.mem.Profiles().Get(ctx, w.UID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "profile must not be recreated")

	_, _, err = f.svc.Identity.SignIn(ctx, LoginInput{Email: "w@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

type flakyAccounts struct {
	AccountStore
	fail bool
}

func (a *flakyAccounts) Delete(ctx context.Context, id string) error {
	if a.fail {
		return errors.New("connection reset")
	}
	return a.AccountStore.Delete(ctx, id)
}

func TestRemoveCanBeRepeatedAfterPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)

	accts := &flakyAccounts{AccountStore: f.svc.Team.Stores.Accounts, fail: true}
	f.svc.Team.Stores.Accounts = accts

	err := f.svc.Team.Remove(ctx, admin, w.UID)
	var se *StoreError
	require.True(t, errors.As(err, &se), "got %v", err)

	// Nothing half-removed is visible: the worker keeps the worker profile.
	p, err := f.mem.Profiles().Get(ctx, w.UID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleWorker, p.Role)

	accts.fail = false
	require.NoError(t, f.svc.Team.Remove(ctx, admin, w.UID))

	_, err = f.mem.Profiles().Get(ctx, w.UID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, _, err = f.svc.Identity.SignIn(ctx, LoginInput{Email: "w@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Access.Resolve(ctx, w.Identity)
	isAuthz(t, err)
}

func TestRemoveFinishesWhenOnlyTheAccountIsLeft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)
	require.NoError(t, f.mem.Profiles().Delete(ctx, w.UID))

	require.NoError(t, f.svc.Team.Remove(ctx, admin, w.UID))

	_, err := f.mem.Accounts().GetByID(ctx, w.UID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, f.events.types(), queue.MemberRemoved)
}

func TestProfileSelfService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@example.com", model.RoleNew)

	p, err := f.svc.Team.UpdateProfile(ctx, u, ProfileInput{Name: " Uma ", Phone: "+1 555"})
	require.NoError(t, err)
	assert.Equal(t, "Uma", p.Name)
	assert.Equal(t, model.RoleNew, p.Role)

	_, err = f.svc.Team.UpdateProfile(ctx, u, ProfileInput{})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = f.svc.Team.Profile(ctx, access.Session{})
	isAuthz(t, err)
}

func TestDashboardCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	w := f.user(t, "w@example.com", model.RoleWorker)
	f.user(t, "n1@example.com", model.RoleNew)
	f.user(t, "n2@example.com", model.RoleNew)

	v, _ := f.svc.Videos.Create(ctx, w, videoInput("ChX"))
	f.svc.Videos.Create(ctx, w, videoInput("ChY"))
	_, err := f.svc.Deletions.RequestDeletion(ctx, w, v.ID)
	require.NoError(t, err)

	c, err := f.svc.Dashboard.Counts(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, Counts{PendingDeletions: 1, ApprovalRequests: 2, PendingPayments: 2}, c)

	_, err = f.svc.Dashboard.Counts(ctx, w)
	isAuthz(t, err)
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream")
	}
	var zero T
	return zero
}

// until reads snapshots until ok accepts one. Signals may coalesce, so
// intermediate snapshots can be skipped.
func until[T any](t *testing.T, ch <-chan T, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, open := <-ch:
			require.True(t, open, "stream closed")
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestWatchDeliversFullSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := f.user(t, "w@example.com", model.RoleWorker)

	snaps, err := f.svc.Videos.Watch(ctx, w, model.VideoQuery{})
	require.NoError(t, err)
	first := recv(t, snaps)
	require.NoError(t, first.Err)
	assert.Empty(t, first.Data)

	_, err = f.svc.Videos.Create(ctx, w, videoInput("A"))
	require.NoError(t, err)
	snap := until(t, snaps, func(s feed.Snapshot[[]model.VideoRecord]) bool { return len(s.Data) == 1 })

	_, err = f.svc.Videos.Create(ctx, w, videoInput("B"))
	require.NoError(t, err)
	snap = until(t, snaps, func(s feed.Snapshot[[]model.VideoRecord]) bool { return len(s.Data) == 2 })
	assert.Equal(t, "A", snap.Data[0].Channel)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-snaps
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchRequiresCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@example.com", model.RoleNew)

	_, err := f.svc.Videos.Watch(ctx, u, model.VideoQuery{})
	isAuthz(t, err)
	_, err = f.svc.Deletions.Watch(ctx, u)
	isAuthz(t, err)
	_, err = f.svc.Team.WatchRoster(ctx, u, model.TeamQuery{})
	isAuthz(t, err)
	_, err = f.svc.Dashboard.Watch(ctx, u)
	isAuthz(t, err)
}

func TestWatchSession(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	admin := f.user(t, "boss@example.com", model.RoleAdmin)
	u := f.user(t, "u@example.com", model.RoleNew)

	states, err := f.svc.Access.WatchSession(ctx, u.Identity)
	require.NoError(t, err)
	assert.True(t, recv(t, states).Loading)
	st := recv(t, states)
	assert.False(t, st.Loading)
	assert.Equal(t, model.RoleNew, st.Role)

	_, err = f.svc.Team.Approve(ctx, admin, u.UID)
	require.NoError(t, err)
	st = recv(t, states)
	assert.Equal(t, model.RoleWorker, st.Role)
	assert.Contains(t, st.Capabilities, access.CreateVideo)

	_, err = f.svc.Team.Suspend(ctx, admin, u.UID)
	require.NoError(t, err)
	st = recv(t, states)
	assert.True(t, st.Suspended)
	assert.NotContains(t, st.Capabilities, access.CreateVideo)

	require.NoError(t, f.svc.Team.Remove(ctx, admin, u.UID))
	st = recv(t, states)
	assert.Equal(t, model.Role(""), st.Role)
}

func TestWatchSessionAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	states, err := f.svc.Access.WatchSession(ctx, access.Identity{})
	require.NoError(t, err)
	assert.True(t, recv(t, states).Loading)
	st := recv(t, states)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Role)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-states
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRegisterAndTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, s, err := f.svc.Identity.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1", Name: "A"})
	require.NoError(t, err)

	_, _, err = f.svc.Identity.Register(ctx, RegisterInput{Email: "A@example.com", Password: "password1", Name: "A"})
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	_, _, err = f.svc.Identity.Register(ctx, RegisterInput{Email: "nope", Password: "short"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password")
	assert.Contains(t, ve.Fields, "name")

	id, err := f.svc.Identity.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.Identity, id)

	_, _, err = f.svc.Identity.SignIn(ctx, LoginInput{Email: "a@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	rotated, err := f.svc.Identity.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	_, err = f.svc.Identity.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old refresh token is revoked")

	require.NoError(t, f.svc.Identity.SignOut(ctx, rotated.RefreshToken))
	_, err = f.svc.Identity.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

type failingVideos struct {
	VideoStore
}

func (failingVideos) Create(context.Context, model.VideoRecord) error {
	return errors.New("connection reset")
}

func TestStoreFailureIsStoreError(t *testing.T) {
	f := newFixture(t)
	w := f.user(t, "w@example.com", model.RoleWorker)
	f.svc.Videos.Stores.Videos = failingVideos{f.svc.Videos.Stores.Videos}

	_, err := f.svc.Videos.Create(context.Background(), w, videoInput("ChX"))
	var se *StoreError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "videos.create", se.Op)
}
