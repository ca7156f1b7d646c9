package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"

	"github.com/JonMunkholm/locsheet/internal/core"
)

var unitID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func newLocker(t *testing.T) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() { db.Close() })

	l := NewRedisLocker(db, time.Minute)
	l.newToken = func() string { return "tok-1" }
	return l, mock
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	l, mock := newLocker(t)
	key := DefaultKeyPrefix + unitID.String()

	mock.ExpectSetNX(key, "tok-1", time.Minute).SetVal(true)
	mock.ExpectEval(releaseScript, []string{key}, "tok-1").SetVal(int64(1))

	release, err := l.Acquire(context.Background(), unitID)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisLocker_Held(t *testing.T) {
	l, mock := newLocker(t)
	mock.ExpectSetNX(DefaultKeyPrefix+unitID.String(), "tok-1", time.Minute).SetVal(false)

	_, err := l.Acquire(context.Background(), unitID)
	if !errors.Is(err, core.ErrImportInProgress) {
		t.Fatalf("Acquire() error = %v, want ErrImportInProgress", err)
	}
	if got := core.MapError(err).Code; got != "LOCK001" {
		t.Errorf("MapError code = %s, want LOCK001", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisLocker_RedisDown(t *testing.T) {
	l, mock := newLocker(t)
	mock.ExpectSetNX(DefaultKeyPrefix+unitID.String(), "tok-1", time.Minute).SetErr(errors.New("connection refused"))

	_, err := l.Acquire(context.Background(), unitID)
	if err == nil || errors.Is(err, core.ErrImportInProgress) {
		t.Fatalf("Acquire() error = %v, want transport error", err)
	}
}

func TestNop(t *testing.T) {
	release, err := Nop{}.Acquire(context.Background(), unitID)
	if err != nil {
		t.Fatalf("Nop.Acquire() error = %v", err)
	}
	release()
}
