package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/susu3304/sharetabbot/internal/logging"
)

// CachedReader remembers OCR results per image so re-sending the same photo
// does not hit the OCR backend again. Cache failures fall through to the
// wrapped Reader.
type CachedReader struct {
	next   Reader
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logging.Logger
}

type CacheOption func(*CachedReader)

func WithPrefix(prefix string) CacheOption {
	return func(c *CachedReader) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedReader) { c.ttl = ttl }
}

func WithCacheLogger(log *logging.Logger) CacheOption {
	return func(c *CachedReader) { c.log = log }
}

func NewCachedReader(next Reader, client *redis.Client, opts ...CacheOption) *CachedReader {
	c := &CachedReader{
		next:   next,
		client: client,
		prefix: "sharetab:receipt:",
		ttl:    24 * time.Hour,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedReader) key(image []byte) string {
	sum := sha256.Sum256(image)
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *CachedReader) Read(ctx context.Context, image []byte, filename string) (*Document, error) {
	key := c.key(image)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doc Document
		if jerr := json.Unmarshal(raw, &doc); jerr == nil {
			c.log.Debug().Str("key", key).Msg("receipt cache hit")
			return &doc, nil
		}
		c.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Msg("receipt cache lookup failed")
	}

	doc, err := c.next.Read(ctx, image, filename)
	if err != nil {
		return nil, err
	}
	if len(doc.Items) == 0 {
		return doc, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return doc, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("receipt cache store failed")
	}
	return doc, nil
}
