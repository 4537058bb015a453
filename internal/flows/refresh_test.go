package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/phoneauth/jwt"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/session"
)

type fakeStore struct {
	records  map[string]session.RefreshRecord
	issued   []string
	popErr   error
	issueErr error
}

func (f *fakeStore) PopRefreshByToken(_ context.Context, token string) (*session.RefreshRecord, error) {
	if f.popErr != nil {
		return nil, f.popErr
	}
	rec, ok := f.records[token]
	if !ok {
		return nil, session.ErrRefreshNotFound
	}
	delete(f.records, token)
	return &rec, nil
}

func (f *fakeStore) IssueRefresh(_ context.Context, userID, role string, _ time.Duration) (string, int, error) {
	if f.issueErr != nil {
		return "", 0, f.issueErr
	}
	evicted := 0
	for tok, rec := range f.records {
		if rec.UserID == userID {
			delete(f.records, tok)
			evicted++
		}
	}
	tok := "tok-" + userID + "-" + string(rune('a'+len(f.issued)))
	f.records[tok] = session.RefreshRecord{Token: tok, UserID: userID, Role: role}
	f.issued = append(f.issued, tok)
	return tok, evicted, nil
}

func refreshDeps(store *fakeStore) RefreshDeps {
	now := time.Unix(1_700_000_000, 0)
	return RefreshDeps{
		SessionStore: store,
		Issue: IssueDeps{
			SessionStore: store,
			EncodeAccess: func(c jwt.AccessClaims) (string, error) { return "access-" + c.Subject, nil },
			Now:          func() time.Time { return now },
			AccessTTL:    2 * time.Minute,
			RefreshTTL:   14 * 24 * time.Hour,
		},
	}
}

func TestRunRefreshRotatesAndIsSingleUse(t *testing.T) {
	store := &fakeStore{records: map[string]session.RefreshRecord{
		"old": {Token: "old", UserID: "u-1", Role: "CLIENT"},
	}}
	deps := refreshDeps(store)

	res := RunRefresh(context.Background(), "old", deps)
	if res.Failure != RefreshFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	if res.UserID != "u-1" || res.Role != permission.RoleClient {
		t.Fatalf("unexpected owner %q/%q", res.UserID, res.Role)
	}
	if res.Issue.RefreshToken == "" || res.Issue.RefreshToken == "old" {
		t.Fatalf("expected a new refresh token, got %q", res.Issue.RefreshToken)
	}
	if res.Issue.Claims.ExpiresAt != 1_700_000_000+120 {
		t.Fatalf("unexpected exp %d", res.Issue.Claims.ExpiresAt)
	}

	again := RunRefresh(context.Background(), "old", deps)
	if again.Failure != RefreshFailureNotFound {
		t.Fatalf("reuse must fail as not found, got %v", again.Failure)
	}
}

func TestRunRefreshFailureKinds(t *testing.T) {
	store := &fakeStore{records: map[string]session.RefreshRecord{}}
	if res := RunRefresh(context.Background(), "", refreshDeps(store)); res.Failure != RefreshFailureNotPresented {
		t.Fatalf("expected not presented, got %v", res.Failure)
	}

	store.popErr = session.ErrRedisUnavailable
	if res := RunRefresh(context.Background(), "x", refreshDeps(store)); res.Failure != RefreshFailureStore {
		t.Fatalf("expected store failure, got %v", res.Failure)
	}

	store.popErr = nil
	store.records["x"] = session.RefreshRecord{Token: "x", UserID: "u", Role: "CLIENT"}
	store.issueErr = errors.New("boom")
	if res := RunRefresh(context.Background(), "x", refreshDeps(store)); res.Failure != RefreshFailureIssue {
		t.Fatalf("expected issue failure, got %v", res.Failure)
	}
}

func TestRunSignOutIsIdempotent(t *testing.T) {
	store := &fakeStore{records: map[string]session.RefreshRecord{
		"t": {Token: "t", UserID: "u-1", Role: "CLIENT"},
	}}
	deps := SignOutDeps{SessionStore: store}

	if res := RunSignOut(context.Background(), "t", deps); !res.Revoked || res.Err != nil {
		t.Fatalf("expected revoke, got %+v", res)
	}
	if res := RunSignOut(context.Background(), "t", deps); res.Revoked || res.Err != nil {
		t.Fatalf("second sign-out must be a silent no-op, got %+v", res)
	}
	if res := RunSignOut(context.Background(), "", deps); res.Revoked || res.Err != nil {
		t.Fatalf("missing cookie must be a no-op, got %+v", res)
	}
}
