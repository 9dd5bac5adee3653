package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"research-rag/internal/config"
)

// Article is a document imported from a URL or an uploaded file.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID          string    `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Content     string    `bun:"content,notnull" json:"content"`
	AuthorID    string    `bun:"author_id,notnull" json:"author_id"`
	URL         string    `bun:"url" json:"url,omitempty"`
	IsPublished bool      `bun:"is_published" json:"is_published"`
	Saved       bool      `bun:"saved" json:"saved"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Conversation is the durable copy of a cached conversation, synced from
// Redis by the background worker.
type Conversation struct {
	bun.BaseModel `bun:"table:conversation_history,alias:ch"`

	ID                  int64           `bun:"id,pk,autoincrement" json:"id"`
	RedisConversationID string          `bun:"redis_conversation_id,notnull,unique" json:"redis_conversation_id"`
	UserID              string          `bun:"user_id,notnull" json:"user_id"`
	Title               string          `bun:"title" json:"title"`
	History             json.RawMessage `bun:"history,type:jsonb" json:"history"`
	LastUpdated         time.Time       `bun:"last_updated,nullzero,notnull,default:current_timestamp" json:"last_updated"`
}

func NewDB(sqldb *sql.DB, verbose bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.URL + "?sslmode=disable")}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

func InitDB(ctx context.Context, db *bun.DB) error {
	models := []interface{}{
		(*Article)(nil),
		(*Conversation)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func InsertArticle(ctx context.Context, db *bun.DB, article *Article) error {
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now
	_, err := db.NewInsert().Model(article).Returning("id").Exec(ctx)
	return err
}

// UpsertConversation inserts a conversation or refreshes an existing one,
// keyed by its Redis conversation id.
func UpsertConversation(ctx context.Context, db *bun.DB, conv *Conversation) error {
	_, err := db.NewInsert().
		Model(conv).
		On("CONFLICT (redis_conversation_id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("history = EXCLUDED.history").
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx)
	return err
}

func ListConversations(ctx context.Context, db *bun.DB, userID string) ([]Conversation, error) {
	var convs []Conversation
	err := db.NewSelect().
		Model(&convs).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Scan(ctx)
	return convs, err
}

func GetArticle(ctx context.Context, db *bun.DB, id string) (*Article, error) {
	article := new(Article)
	err := db.NewSelect().Model(article).Where("a.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return article, nil
}
