//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/redis/go-redis/v9"
)

func TestRefreshRaceSingleWinner(t *testing.T) {
	forEachRedis(t, func(t *testing.T, rdb redis.UniversalClient) {
		ctx := context.Background()
		engine := newEngine(t, rdb, nil)

		rec := httptest.NewRecorder()
		if _, err := engine.CreateTokens(ctx, rec, "u-race", permission.RoleClient); err != nil {
			t.Fatalf("CreateTokens: %v", err)
		}
		refresh := cookieValue(t, rec, "refresh")

		const workers = 16
		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(workers)

		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				<-start
				_, err := engine.UpdateTokens(ctx, nil, phoneauth.Credentials{Cookie: refresh})
				results <- err
			}()
		}

		close(start)
		wg.Wait()
		close(results)

		success := 0
		for err := range results {
			switch {
			case err == nil:
				success++
			case errors.Is(err, phoneauth.ErrInvalidCredentials):
			default:
				t.Fatalf("unexpected refresh error: %v", err)
			}
		}

		if success != 1 {
			t.Fatalf("expected exactly one winner, got %d", success)
		}
		if records := refreshRecords(t, rdb, "u-race"); len(records) != 1 {
			t.Fatalf("expected one live record, got %v", records)
		}
	})
}

func TestConcurrentIssueLeavesOneRecordPerUser(t *testing.T) {
	forEachRedis(t, func(t *testing.T, rdb redis.UniversalClient) {
		ctx := context.Background()
		engine := newEngine(t, rdb, nil)

		const (
			users   = 4
			workers = 8
		)
		var wg sync.WaitGroup
		for u := 0; u < users; u++ {
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(userID string) {
					defer wg.Done()
					if _, err := engine.CreateTokens(ctx, nil, userID, permission.RoleClient); err != nil {
						t.Errorf("CreateTokens(%s): %v", userID, err)
					}
				}(fmt.Sprintf("u-%d", u))
			}
		}
		wg.Wait()

		for u := 0; u < users; u++ {
			userID := fmt.Sprintf("u-%d", u)
			if records := refreshRecords(t, rdb, userID); len(records) != 1 {
				t.Fatalf("%s: expected one record, got %v", userID, records)
			}
		}
	})
}
