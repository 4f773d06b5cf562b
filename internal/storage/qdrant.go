package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hyperjump/tansaku/internal/vector"
	"github.com/hyperjump/tansaku/pkg/utils"
)

const (
	payloadIDKey       = "_id"
	payloadDocumentKey = "_document"
	scrollPageSize     = 256
)

// QdrantConfig locates a Qdrant collection.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	Dimensions int
}

// QdrantStore implements vector.Store on a Qdrant collection over gRPC.
// Record ids are mapped to deterministic UUIDs; the original id is kept in the payload.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dimensions  int
	logger      *zap.Logger
}

// NewQdrantStore connects to Qdrant and creates the collection if it does not exist.
func NewQdrantStore(cfg QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s: %w", addr, err)
	}
	s := newQdrantStore(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), cfg, logger)
	s.conn = conn
	if err := s.ensureCollection(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func newQdrantStore(points pb.PointsClient, collections pb.CollectionsClient, cfg QdrantConfig, logger *zap.Logger) *QdrantStore {
	return &QdrantStore{
		points:      points,
		collections: collections,
		collection:  cfg.Collection,
		dimensions:  cfg.Dimensions,
		logger:      utils.OrNop(logger),
	}
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("check qdrant collection: %w", err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}
	if s.dimensions <= 0 {
		return errors.New("qdrant collection needs positive dimensions")
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create qdrant collection %q: %w", s.collection, err)
	}
	s.logger.Info("created qdrant collection", zap.String("collection", s.collection), zap.Int("dimensions", s.dimensions))
	return nil
}

func pointID(id string) *pb.PointId {
	u := uuid.NewSHA1(uuid.NameSpaceURL, []byte(id))
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: u.String()}}
}

// Upsert writes the point and waits for it to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, id string, vec []float32, document string, metadata map[string]string) error {
	payload := make(map[string]*pb.Value, len(metadata)+2)
	for k, v := range metadata {
		payload[k] = stringValue(v)
	}
	payload[payloadIDKey] = stringValue(id)
	payload[payloadDocumentKey] = stringValue(document)

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{
			{
				Id: pointID(id),
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Vector: &pb.Vector_Dense{Dense: &pb.DenseVector{Data: vec}}},
					},
				},
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// GetByID returns the record with id or vector.ErrNotFound.
func (s *QdrantStore) GetByID(ctx context.Context, id string) (*vector.Record, error) {
	resp, err := s.points.Get(ctx, &pb.GetPoints{
		CollectionName: s.collection,
		Ids:            []*pb.PointId{pointID(id)},
		WithPayload:    withPayload(),
		WithVectors:    withVectors(),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant get: %w", err)
	}
	if len(resp.GetResult()) == 0 {
		return nil, vector.ErrNotFound
	}
	return retrievedRecord(resp.GetResult()[0]), nil
}

// Query searches the collection. Scores are cosine similarities, returned as distances.
func (s *QdrantStore) Query(ctx context.Context, vec []float32, k int, filters vector.Filters) ([]vector.Hit, error) {
	if k <= 0 {
		return []vector.Hit{}, nil
	}
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vec,
		Limit:          uint64(k),
		Filter:         qdrantFilter(filters),
		WithPayload:    withPayload(),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	hits := make([]vector.Hit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		id, doc, meta := splitPayload(p.GetPayload())
		hits = append(hits, vector.Hit{
			ID:       id,
			Document: doc,
			Metadata: meta,
			Distance: 1 - float64(p.GetScore()),
		})
	}
	return vector.SortHits(hits, k), nil
}

// Count returns the exact number of points.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{CollectionName: s.collection, Exact: &exact})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// GetAll scrolls through the whole collection.
func (s *QdrantStore) GetAll(ctx context.Context) ([]*vector.Record, error) {
	var out []*vector.Record
	limit := uint32(scrollPageSize)
	var offset *pb.PointId
	for {
		resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: s.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    withPayload(),
			WithVectors:    withVectors(),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll: %w", err)
		}
		for _, p := range resp.GetResult() {
			out = append(out, retrievedRecord(p))
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}
	return out, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func stringValue(v string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
}

func withPayload() *pb.WithPayloadSelector {
	return &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}}
}

func withVectors() *pb.WithVectorsSelector {
	return &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}}
}

func qdrantFilter(filters vector.Filters) *pb.Filter {
	active := filters.Active()
	if len(active) == 0 {
		return nil
	}
	keys := make([]string, 0, len(active))
	for k := range active {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	must := make([]*pb.Condition, 0, len(keys))
	for _, k := range keys {
		must = append(must, &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key: k,
					Match: &pb.Match{
						MatchValue: &pb.Match_Keyword{Keyword: active[k]},
					},
				},
			},
		})
	}
	return &pb.Filter{Must: must}
}

func splitPayload(payload map[string]*pb.Value) (id, document string, metadata map[string]string) {
	metadata = make(map[string]string, len(payload))
	for k, v := range payload {
		switch k {
		case payloadIDKey:
			id = v.GetStringValue()
		case payloadDocumentKey:
			document = v.GetStringValue()
		default:
			metadata[k] = v.GetStringValue()
		}
	}
	return id, document, metadata
}

func retrievedRecord(p *pb.RetrievedPoint) *vector.Record {
	id, doc, meta := splitPayload(p.GetPayload())
	v := p.GetVectors().GetVector()
	data := v.GetDense().GetData()
	if len(data) == 0 {
		data = v.GetData()
	}
	return &vector.Record{ID: id, Vector: data, Document: doc, Metadata: meta}
}
