package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Leen2210/Chatbot-Samator/internal/cache"
	"github.com/Leen2210/Chatbot-Samator/platform/ai/embeddings"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

const (
	partsCacheKey = "parts:catalog"

	// Defaults used by Best.
	defaultTopK      = 3
	defaultThreshold = 0.55

	// Bound on concurrent embedding calls during warm-up.
	warmEmbedLimit = 8
)

// Match is a resolved catalog candidate.
type Match struct {
	PartNum     string  `json:"partnum"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Score       float64 `json:"score"`
	Fuzzy       bool    `json:"fuzzy,omitempty"`
}

type Service struct {
	repo  *Repository
	cache *cache.Store
	embed *embeddings.Client
	ttl   time.Duration
	log   *logger.Logger
}

func NewService(repo *Repository, store *cache.Store, embed *embeddings.Client, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: store,
		embed: embed,
		ttl:   ttl,
		log:   log,
	}
}

// WarmCache loads the catalog into Redis and backfills missing embeddings.
// Returns the number of parts cached.
func (s *Service) WarmCache(ctx context.Context) (int, error) {
	parts, err := s.repo.ListParts(ctx)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmEmbedLimit)
	for i := range parts {
		if len(parts[i].Embedding) > 0 {
			continue
		}
		part := &parts[i]
		g.Go(func() error {
			vec, err := s.embed.Embed(gctx, part.Description)
			if err != nil {
				// Missing embeddings only disable semantic search for
				// that part; fuzzy search still covers it.
				s.log.Warn("embed part failed", "partnum", part.PartNum, "error", err)
				return nil
			}
			part.Embedding = vec
			if err := s.repo.SaveEmbedding(gctx, part.ID, vec); err != nil {
				s.log.DatabaseError("save part embedding", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := s.storeParts(ctx, parts); err != nil {
		s.log.CacheError("warm parts cache", err)
	}
	return len(parts), nil
}

// Best returns the single best catalog match for a product mention, or nil
// when nothing plausible matches. Semantic search first, fuzzy fallback.
func (s *Service) Best(ctx context.Context, query string) (*Match, error) {
	matches, err := s.Search(ctx, query, defaultTopK, defaultThreshold)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		matches, err = s.FuzzySearch(ctx, query, defaultTopK)
		if err != nil {
			return nil, err
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// Search ranks parts by cosine similarity between the query embedding and
// the stored part embeddings.
func (s *Service) Search(ctx context.Context, query string, topK int, threshold float64) ([]Match, error) {
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	parts, err := s.parts(ctx)
	if err != nil {
		return nil, err
	}

	return rankBySimilarity(parts, vec, topK, threshold), nil
}

// FuzzySearch is the no-embedding fallback: case-insensitive substring
// containment either way, ranked by token overlap.
func (s *Service) FuzzySearch(ctx context.Context, query string, topK int) ([]Match, error) {
	parts, err := s.parts(ctx)
	if err != nil {
		return nil, err
	}
	return rankByFuzzy(parts, query, topK), nil
}

func (s *Service) parts(ctx context.Context) ([]Part, error) {
	if data, err := s.cache.Get(ctx, partsCacheKey); err == nil {
		var parts []Part
		if err := json.Unmarshal(data, &parts); err == nil {
			return parts, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.CacheError("get parts cache", err)
	}

	parts, err := s.repo.ListParts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.storeParts(ctx, parts); err != nil {
		s.log.CacheError("set parts cache", err)
	}
	return parts, nil
}

func (s *Service) storeParts(ctx context.Context, parts []Part) error {
	data, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, partsCacheKey, data, s.ttl)
}

func rankBySimilarity(parts []Part, queryVec []float32, topK int, threshold float64) []Match {
	matches := make([]Match, 0, topK)
	for _, p := range parts {
		if len(p.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(queryVec, p.Embedding)
		if score < threshold {
			continue
		}
		matches = append(matches, Match{
			PartNum:     p.PartNum,
			Description: p.Description,
			Unit:        p.UOM,
			Score:       score,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func rankByFuzzy(parts []Part, query string, topK int) []Match {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return nil
	}
	queryTokens := strings.Fields(queryLower)

	var matches []Match
	for _, p := range parts {
		descLower := strings.ToLower(p.Description)
		if !strings.Contains(descLower, queryLower) && !strings.Contains(queryLower, descLower) {
			continue
		}
		matches = append(matches, Match{
			PartNum:     p.PartNum,
			Description: p.Description,
			Unit:        p.UOM,
			Score:       tokenOverlap(queryTokens, descLower),
			Fuzzy:       true,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func tokenOverlap(queryTokens []string, desc string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range queryTokens {
		if strings.Contains(desc, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}
