package backend

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_moments/internal/engine"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PostgresClient implements Client directly on top of Postgres, for deployments
// where this server is the backend.
type PostgresClient struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and runs schema migrations.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	c := &PostgresClient{pool: pool}
	if err := c.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("moments postgres connected", slog.String("addr", config.ConnConfig.Host))
	return c, nil
}

func (c *PostgresClient) Close() {
	c.pool.Close()
}

func (c *PostgresClient) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := c.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", entry.Name(), err)
		}
		slog.Debug("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// voterID derives a stable opaque voter key from the bearer token.
func voterID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func (c *PostgresClient) Register(ctx context.Context, token string, req RegisterRequest) (RegisterResponse, error) {
	if token == "" {
		return RegisterResponse{}, &StatusError{Op: "register", Status: 401}
	}
	if req.ContentID == "" {
		return RegisterResponse{}, &StatusError{Op: "register", Status: 400, Body: "contentId required"}
	}

	_, err := c.pool.Exec(ctx, `
		INSERT INTO content_items (content_id, page_url, page_host, title, channel_name,
			caption_base_url, caption_language, caption_is_auto)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_id) DO UPDATE SET
			page_url = EXCLUDED.page_url,
			page_host = EXCLUDED.page_host,
			title = COALESCE(EXCLUDED.title, content_items.title),
			channel_name = COALESCE(EXCLUDED.channel_name, content_items.channel_name),
			caption_base_url = COALESCE(EXCLUDED.caption_base_url, content_items.caption_base_url),
			caption_language = COALESCE(EXCLUDED.caption_language, content_items.caption_language),
			caption_is_auto = EXCLUDED.caption_is_auto,
			updated_at = now()`,
		req.ContentID, req.PageURL, req.PageHost, req.Title, req.ChannelName,
		req.CaptionBaseURL, req.CaptionLanguage, req.CaptionIsAuto)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("register %s: %w", req.ContentID, err)
	}

	var lang string
	err = c.pool.QueryRow(ctx, `SELECT language FROM transcripts WHERE content_id = $1`, req.ContentID).Scan(&lang)
	if errors.Is(err, pgx.ErrNoRows) {
		return RegisterResponse{}, nil
	}
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("register %s: lookup transcript: %w", req.ContentID, err)
	}
	return RegisterResponse{AlreadyFetched: true, Language: lang}, nil
}

func (c *PostgresClient) Upload(ctx context.Context, token string, req UploadRequest) error {
	if token == "" {
		return &StatusError{Op: "upload", Status: 401}
	}
	if len(req.Segments) == 0 {
		return &StatusError{Op: "upload", Status: 400, Body: "no segments"}
	}
	segs, err := json.Marshal(req.Segments)
	if err != nil {
		return fmt.Errorf("upload: encode segments: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
		INSERT INTO transcripts (content_id, language, format, segments)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_id) DO NOTHING`,
		req.ContentID, req.Language, req.Format, segs)
	if err != nil {
		return fmt.Errorf("upload %s: %w", req.ContentID, err)
	}
	return nil
}

func (c *PostgresClient) Vote(ctx context.Context, token string, req VoteRequest) error {
	if token == "" {
		return &StatusError{Op: "vote", Status: 401}
	}
	if !req.Vote.Valid() {
		return fmt.Errorf("vote: invalid vote type %q", req.Vote)
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO votes (content_id, page_url, page_host, voter, time_seconds, time_bucket, vote)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ContentID, req.PageURL, req.PageHost, voterID(token), req.TimeSeconds, BucketOf(req.TimeSeconds), string(req.Vote))
	if err != nil {
		return fmt.Errorf("vote %s: %w", req.ContentID, err)
	}
	engine.IncrVoteSubmitted()
	return nil
}

func (c *PostgresClient) Summary(ctx context.Context, token, contentID string, limit int) (Summary, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT time_bucket,
			COUNT(*) FILTER (WHERE vote = 'UP')   AS up,
			COUNT(*) FILTER (WHERE vote = 'DOWN') AS down
		FROM votes
		WHERE content_id = $1
		GROUP BY time_bucket
		HAVING COUNT(*) FILTER (WHERE vote = 'UP') > 0
		ORDER BY up DESC, time_bucket ASC
		LIMIT $2`, contentID, normLimit(limit))
	if err != nil {
		return Summary{}, fmt.Errorf("summary %s: %w", contentID, err)
	}
	defer rows.Close()

	out := Summary{ContentID: contentID, TopUp: []Bucket{}}
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.TimeBucket, &b.Up, &b.Down); err != nil {
			return Summary{}, fmt.Errorf("summary %s: scan: %w", contentID, err)
		}
		out.TopUp = append(out.TopUp, b)
	}
	return out, rows.Err()
}

func (c *PostgresClient) Transcript(ctx context.Context, token, contentID string) (StoredTranscript, error) {
	var (
		lang string
		raw  []byte
	)
	err := c.pool.QueryRow(ctx, `SELECT language, segments FROM transcripts WHERE content_id = $1`, contentID).Scan(&lang, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoredTranscript{}, fmt.Errorf("transcript %s: %w", contentID, ErrNotFound)
	}
	if err != nil {
		return StoredTranscript{}, fmt.Errorf("transcript %s: %w", contentID, err)
	}
	out := StoredTranscript{ContentID: contentID, Language: lang}
	if err := json.Unmarshal(raw, &out.Segments); err != nil {
		return StoredTranscript{}, fmt.Errorf("transcript %s: decode: %w", contentID, err)
	}
	return out, nil
}
