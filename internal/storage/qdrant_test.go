package storage

import (
	"context"
	"sort"
	"sync"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/hyperjump/tansaku/internal/vector"
)

// fakePoints keeps points in memory and answers the calls QdrantStore makes.
type fakePoints struct {
	pb.PointsClient

	mu     sync.Mutex
	order  []string
	points map[string]*pb.PointStruct
}

func newFakePoints() *fakePoints {
	return &fakePoints{points: map[string]*pb.PointStruct{}}
}

func (f *fakePoints) Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range in.GetPoints() {
		id := p.GetId().GetUuid()
		if _, ok := f.points[id]; !ok {
			f.order = append(f.order, id)
		}
		f.points[id] = p
	}
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePoints) Get(ctx context.Context, in *pb.GetPoints, opts ...grpc.CallOption) (*pb.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &pb.GetResponse{}
	for _, id := range in.GetIds() {
		if p, ok := f.points[id.GetUuid()]; ok {
			resp.Result = append(resp.Result, retrieved(p))
		}
	}
	return resp, nil
}

func (f *fakePoints) Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &pb.SearchResponse{}
	for _, id := range f.order {
		p := f.points[id]
		if !matches(p, in.GetFilter()) {
			continue
		}
		score := vector.CosineSimilarity(in.GetVector(), denseOf(p))
		resp.Result = append(resp.Result, &pb.ScoredPoint{Id: p.GetId(), Payload: p.GetPayload(), Score: float32(score)})
	}
	sort.SliceStable(resp.Result, func(i, j int) bool { return resp.Result[i].Score > resp.Result[j].Score })
	if uint64(len(resp.Result)) > in.GetLimit() {
		resp.Result = resp.Result[:in.GetLimit()]
	}
	return resp, nil
}

func (f *fakePoints) Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &pb.CountResponse{Result: &pb.CountResult{Count: uint64(len(f.points))}}, nil
}

func (f *fakePoints) Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &pb.ScrollResponse{}
	for _, id := range f.order {
		resp.Result = append(resp.Result, retrieved(f.points[id]))
	}
	return resp, nil
}

func denseOf(p *pb.PointStruct) []float32 {
	return p.GetVectors().GetVector().GetDense().GetData()
}

func retrieved(p *pb.PointStruct) *pb.RetrievedPoint {
	return &pb.RetrievedPoint{
		Id:      p.GetId(),
		Payload: p.GetPayload(),
		Vectors: &pb.VectorsOutput{
			VectorsOptions: &pb.VectorsOutput_Vector{
				Vector: &pb.VectorOutput{Vector: &pb.VectorOutput_Dense{Dense: &pb.DenseVector{Data: denseOf(p)}}},
			},
		},
	}
}

func matches(p *pb.PointStruct, filter *pb.Filter) bool {
	for _, cond := range filter.GetMust() {
		field := cond.GetField()
		if p.GetPayload()[field.GetKey()].GetStringValue() != field.GetMatch().GetKeyword() {
			return false
		}
	}
	return true
}

type fakeCollections struct {
	pb.CollectionsClient

	exists  bool
	created *pb.CreateCollection
}

func (f *fakeCollections) CollectionExists(ctx context.Context, in *pb.CollectionExistsRequest, opts ...grpc.CallOption) (*pb.CollectionExistsResponse, error) {
	return &pb.CollectionExistsResponse{Result: &pb.CollectionExists{Exists: f.exists}}, nil
}

func (f *fakeCollections) Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.created = in
	f.exists = true
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func TestQdrantStore_contract(t *testing.T) {
	collections := &fakeCollections{}
	s := newQdrantStore(newFakePoints(), collections, QdrantConfig{Collection: "content_collection", Dimensions: 3}, nil)
	require.NoError(t, s.ensureCollection(context.Background()))
	testStoreContract(t, s)
	require.NoError(t, s.Close())
}

func TestQdrantStore_ensureCollection(t *testing.T) {
	collections := &fakeCollections{}
	s := newQdrantStore(newFakePoints(), collections, QdrantConfig{Collection: "c", Dimensions: 768}, nil)
	require.NoError(t, s.ensureCollection(context.Background()))
	require.NotNil(t, collections.created)
	assert.Equal(t, "c", collections.created.GetCollectionName())
	params := collections.created.GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(768), params.GetSize())
	assert.Equal(t, pb.Distance_Cosine, params.GetDistance())

	collections.created = nil
	require.NoError(t, s.ensureCollection(context.Background()))
	assert.Nil(t, collections.created, "existing collection must not be recreated")
}

func TestPointID_deterministic(t *testing.T) {
	a := pointID("article-1").GetUuid()
	assert.Equal(t, a, pointID("article-1").GetUuid())
	assert.NotEqual(t, a, pointID("article-2").GetUuid())
	assert.Len(t, a, 36)
}

func TestQdrantFilter(t *testing.T) {
	assert.Nil(t, qdrantFilter(nil))
	assert.Nil(t, qdrantFilter(vector.Filters{"category": ""}))
	f := qdrantFilter(vector.Filters{"difficulty": "beginner", "category": "AI"})
	require.Len(t, f.GetMust(), 2)
	assert.Equal(t, "category", f.GetMust()[0].GetField().GetKey())
	assert.Equal(t, "AI", f.GetMust()[0].GetField().GetMatch().GetKeyword())
}
