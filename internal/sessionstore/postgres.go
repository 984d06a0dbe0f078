package sessionstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRecord is one snapshot row in chat_sessions.
type SessionRecord struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (SessionRecord) TableName() string {
	return "chat_sessions"
}

// PostgresStore keeps snapshots in PostgreSQL. Ticket sequence values come
// from the ticket_number_seq sequence created by the migrations.
type PostgresStore struct {
	db     *gorm.DB
	prefix string
}

func NewPostgresStore(db *gorm.DB, prefix string) *PostgresStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &PostgresStore{db: db, prefix: prefix}
}

func (p *PostgresStore) Load(ctx context.Context, id string) (*model.Session, error) {
	var rec SessionRecord
	if err := p.db.WithContext(ctx).First(&rec, "key = ?", p.prefix+id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, errors.Wrapf(err, "sessionstore: load %s", id)
	}
	return decode([]byte(rec.Payload))
}

func (p *PostgresStore) Save(ctx context.Context, s *model.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	rec := SessionRecord{Key: p.prefix + s.ID, Payload: string(data), UpdatedAt: time.Now().UTC()}
	err = p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
	return errors.Wrapf(err, "sessionstore: save %s", s.ID)
}

func (p *PostgresStore) List(ctx context.Context) ([]*model.Session, error) {
	var recs []SessionRecord
	if err := p.db.WithContext(ctx).Where("key LIKE ?", p.prefix+"%").Order("key").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "sessionstore: list sessions")
	}
	out := make([]*model.Session, 0, len(recs))
	for _, rec := range recs {
		s, err := decode([]byte(rec.Payload))
		if err != nil {
			return nil, errors.Wrapf(err, "sessionstore: record %s", rec.Key)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *PostgresStore) NextTicketSequence(ctx context.Context) (int64, error) {
	var v int64
	if err := p.db.WithContext(ctx).Raw("SELECT nextval('ticket_number_seq')").Scan(&v).Error; err != nil {
		return 0, errors.Wrap(err, "sessionstore: next ticket sequence")
	}
	return v, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return errors.Wrap(err, "sessionstore: sql db")
	}
	return errors.Wrap(sqlDB.PingContext(ctx), "sessionstore: ping postgres")
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
