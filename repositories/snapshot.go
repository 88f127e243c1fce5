//go:generate go run go.uber.org/mock/mockgen -source=snapshot.go -destination=../mocks/mock_snapshot_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// snapshotKey holds the entire ledger state. The record is overwritten on
// every save; history is expected to be bounded and held in memory.
const snapshotKey = "ledger:snapshot"

type ISnapshotRepository interface {
	Save(messages []domain.Message, nextID int64) error
	Load() ([]domain.Message, int64, error)
}

type SnapshotRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSnapshotRepository(db *badger.DB, log *slog.Logger) SnapshotRepository {
	return SnapshotRepository{db: db, log: log}
}

// snapshotRecord is the persisted layout. It doubles as the export/import
// format, so field names and the RFC 3339 timestamp encoding are contract.
type snapshotRecord struct {
	Messages []diskMessage `json:"messages"`
	NextID   int64         `json:"nextId"`
}

type diskMessage struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Save serializes the full ledger state under a single key in one
// transaction, replacing whatever was recorded before. Badger makes the
// write atomic, so a crash mid-save never leaves a torn record behind.
func (r SnapshotRepository) Save(messages []domain.Message, nextID int64) error {
	record := snapshotRecord{
		Messages: lo.Map(messages, func(m domain.Message, _ int) diskMessage {
			return fromMessage(m)
		}),
		NextID: nextID,
	}
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotKey), bytes)
	})
}

// Load returns the last saved state. A missing record yields
// errors.ErrNoSnapshot; undecodable bytes yield a CorruptSnapshotError so
// the caller can fall back to an empty ledger.
func (r SnapshotRepository) Load() ([]domain.Message, int64, error) {
	var raw []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, 0, errors.ErrNoSnapshot
	}
	if err != nil {
		return nil, 0, err
	}

	var record snapshotRecord
	if err = json.Unmarshal(raw, &record); err != nil {
		return nil, 0, errors.CorruptSnapshotError{Cause: err}
	}
	messages := make([]domain.Message, 0, len(record.Messages))
	for _, dm := range record.Messages {
		message, err := toMessage(dm)
		if err != nil {
			return nil, 0, errors.CorruptSnapshotError{Cause: err}
		}
		messages = append(messages, message)
	}
	return messages, record.NextID, nil
}

func fromMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:        m.ID,
		Author:    m.Author,
		Text:      m.Body,
		Timestamp: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toMessage(dm diskMessage) (domain.Message, error) {
	at, err := time.Parse(time.RFC3339Nano, dm.Timestamp)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        dm.ID,
		Author:    dm.Author,
		Body:      dm.Text,
		CreatedAt: at.UTC(),
	}, nil
}
