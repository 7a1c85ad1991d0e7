package embeddingcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
)

// cacheNamespace deterministically maps our string point ids onto the
// UUID space Qdrant's Go client requires for PointId_Uuid.
var cacheNamespace = uuid.MustParse("6f6e8f0a-9b1e-4b9b-8b3a-8b3a8b3a8b3a")

// QdrantCache is the enrichment backend for brains too large to cache
// comfortably as a single JSON blob, grounded on the teacher's
// internal/vectordb/qdrantdb.go. Nodes and thoughts share one collection,
// distinguished by a "kind" payload field.
type QdrantCache struct {
	client     *qdrant.Client
	collection string
	dimension  int
	log        *logger.Logger
}

// NewQdrantCache connects to Qdrant and ensures the cache collection exists.
func NewQdrantCache(ctx context.Context, cfg *config.EmbeddingCacheConfig, log *logger.Logger) (*QdrantCache, error) {
	log = log.WithComponent("embeddingcache.qdrant")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: extractHost(cfg.QdrantURL),
		Port: extractPort(cfg.QdrantURL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	qc := &QdrantCache{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		log:        log,
	}

	exists, err := qc.collectionExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection %s: %w", cfg.Collection, err)
	}
	if !exists {
		if err := qc.createCollection(ctx); err != nil {
			return nil, fmt.Errorf("failed to create collection %s: %w", cfg.Collection, err)
		}
		log.Info("created embedding cache collection", "collection", cfg.Collection)
	}

	return qc, nil
}

func (qc *QdrantCache) Dimension() int { return qc.dimension }

func (qc *QdrantCache) collectionExists(ctx context.Context) (bool, error) {
	collections, err := qc.client.ListCollections(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range collections {
		if c == qc.collection {
			return true, nil
		}
	}
	return false, nil
}

func (qc *QdrantCache) createCollection(ctx context.Context) error {
	onDisk := true
	return qc.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: qc.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(qc.dimension),
					Distance: qdrant.Distance_Cosine,
					OnDisk:   &onDisk,
				},
			},
		},
	})
}

// NodeVector looks up a node vector by point id, applying the same
// composite/original-id fallback as the file backend.
func (qc *QdrantCache) NodeVector(id string) ([]float32, bool) {
	for _, candidate := range resolveNodeID(id) {
		if v, ok := qc.fetch(pointID("node", candidate)); ok {
			return v, true
		}
	}
	return nil, false
}

func (qc *QdrantCache) ThoughtVector(key string) ([]float32, bool) {
	return qc.fetch(pointID("thought", key))
}

func (qc *QdrantCache) fetch(id string) ([]float32, bool) {
	ctx := context.Background()
	points, err := qc.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: qc.collection,
		Ids:            []*qdrant.PointId{{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil || len(points) == 0 {
		return nil, false
	}

	vectors := points[0].GetVectors()
	if vectors == nil {
		return nil, false
	}
	vec := vectors.GetVector()
	if vec == nil || len(vec.Data) != qc.dimension {
		return nil, false
	}
	return vec.Data, true
}

// PutNode upserts a freshly computed node vector.
func (qc *QdrantCache) PutNode(ctx context.Context, id string, v []float32) error {
	return qc.upsert(ctx, pointID("node", id), v, "node")
}

// PutThought upserts a freshly computed thought vector.
func (qc *QdrantCache) PutThought(ctx context.Context, key string, v []float32) error {
	return qc.upsert(ctx, pointID("thought", key), v, "thought")
}

func (qc *QdrantCache) upsert(ctx context.Context, id string, v []float32, kind string) error {
	_, err := qc.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: qc.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}},
				Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: v}}},
				Payload: map[string]*qdrant.Value{
					"kind": qdrant.NewValueString(kind),
				},
			},
		},
	})
	return err
}

func pointID(kind, key string) string {
	return uuid.NewSHA1(cacheNamespace, []byte(kind+":"+key)).String()
}

func extractHost(url string) string {
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	if idx := strings.LastIndex(url, ":"); idx != -1 {
		return url[:idx]
	}
	return url
}

func extractPort(url string) int {
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	if idx := strings.LastIndex(url, ":"); idx != -1 {
		if p, err := strconv.Atoi(url[idx+1:]); err == nil {
			return p
		}
	}
	return 6334
}
