package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitat/internal/governance/models"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
)

func TestKeyedLockerMutualExclusion(t *testing.T) {
	l := NewKeyedLocker(0)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "k")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Len())
}

func TestKeyedLockerIndependentKeys(t *testing.T) {
	l := NewKeyedLocker(0)
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedLockerTimeout(t *testing.T) {
	l := NewKeyedLocker(20 * time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, sentinel.ErrLockTimeout)

	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())

	again, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	again()
}

func TestKeyedLockerHonoursContext(t *testing.T) {
	l := NewKeyedLocker(0)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, sentinel.ErrLockTimeout)
}

func TestKeys(t *testing.T) {
	user := id.UserID(uuid.New())
	society := id.SocietyID(uuid.New())
	resident := SubjectKey(models.RequestTypeResidentJoin, society, models.ResidentSubject(user))
	listing := SubjectKey(models.RequestTypeProviderListing, society, models.ProviderSubject(id.ProviderID(uuid.New()), user))
	assert.NotEqual(t, resident, listing)

	requestID := id.NewRequestID()
	assert.Equal(t, "governance:request:"+requestID.String(), RequestKey(requestID))
}
