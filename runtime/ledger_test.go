package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLedger(t *testing.T) (*Ledger, *mocks.MockISnapshotRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockISnapshotRepository(ctrl)
	ledger := NewLedger(repository, slog.Default(), observability.NewMonitoringManager())
	return ledger, repository
}

func TestLedger_Append_AssignsSequentialIDs(t *testing.T) {
	req := require.New(t)
	ledger, repository := newTestLedger(t)
	repository.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	// When three messages are appended
	first := ledger.Append("alice", "one")
	second := ledger.Append("bob", "two")
	third := ledger.Append("alice", "three")

	// Then IDs increase by 1 with no gaps, in insertion order
	req.Equal(int64(1), first.ID)
	req.Equal(int64(2), second.ID)
	req.Equal(int64(3), third.ID)
	req.Equal([]domain.Message{first, second, third}, ledger.Snapshot())
}

func TestLedger_Append_Concurrent_NoDuplicateIDs(t *testing.T) {
	req := require.New(t)
	ledger, repository := newTestLedger(t)
	repository.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			ledger.Append("writer", fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()

	// Then no ID is lost or duplicated and the tail ID equals the count
	snapshot := ledger.Snapshot()
	req.Len(snapshot, writers)
	seen := make(map[int64]struct{})
	for _, m := range snapshot {
		seen[m.ID] = struct{}{}
	}
	req.Len(seen, writers)
	req.Equal(int64(writers), snapshot[len(snapshot)-1].ID)
}

func TestLedger_Append_SaveFailureIsNotFatal(t *testing.T) {
	req := require.New(t)
	ledger, repository := newTestLedger(t)

	// Given a store that always fails
	repository.EXPECT().Save(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("disk full")).Times(2)

	// When messages are appended anyway
	ledger.Append("alice", "kept in memory")
	ledger.Append("alice", "also kept")

	// Then the in-memory ledger retains both updates
	req.Equal(2, ledger.Size())
}

func TestLedger_Clear_ResetsCounter(t *testing.T) {
	req := require.New(t)
	ledger, repository := newTestLedger(t)
	repository.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	// Given five messages
	for i := 0; i < 5; i++ {
		ledger.Append("alice", "msg")
	}
	req.Equal(5, ledger.Size())

	// When the ledger is cleared twice in a row
	ledger.Clear()
	ledger.Clear()

	// Then the state is empty and the next append starts back at 1
	req.Equal(0, ledger.Size())
	req.Equal(int64(1), ledger.Append("bob", "fresh start").ID)
}

func TestLedger_Load_FromSnapshot(t *testing.T) {
	req := require.New(t)
	ledger, repository := newTestLedger(t)

	stored := []domain.Message{{ID: 7, Author: "alice", Body: "old"}}
	repository.EXPECT().Load().Return(stored, int64(8), nil).Times(1)
	repository.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	ledger.Load()

	req.Equal(stored, ledger.Snapshot())
	req.Equal(int64(8), ledger.Append("bob", "new").ID)
}

func TestLedger_Load_MissingSnapshot_StartsEmpty(t *testing.T) {
	req := require.New(t)
	ledger, repository := newTestLedger(t)
	repository.EXPECT().Load().Return(nil, int64(0), errors.ErrNoSnapshot).Times(1)
	repository.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	ledger.Load()

	req.Equal(0, ledger.Size())
	req.Equal(int64(1), ledger.Append("alice", "first").ID)
}

func TestLedger_Load_CorruptSnapshot_RecoversEmpty(t *testing.T) {
	req := require.New(t)
	ledger, repository := newTestLedger(t)
	repository.EXPECT().Load().
		Return(nil, int64(0), errors.CorruptSnapshotError{Cause: fmt.Errorf("bad json")}).
		Times(1)

	// When loading never panics or propagates the error
	ledger.Load()

	// Then the ledger starts empty with counter at 1
	req.Equal(0, ledger.Size())
}
