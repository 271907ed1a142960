package annotations

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items per partition and serves the scope query in pages of two
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string][]map[string]types.AttributeValue
	puts  int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string][]map[string]types.AttributeValue)}
}

func attrString(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := attrString(params.Item, "scope")
	f.items[scope] = append(f.items[scope], params.Item)
	sort.Slice(f.items[scope], func(i, j int) bool {
		return attrString(f.items[scope][i], "sortKey") < attrString(f.items[scope][j], "sortKey")
	})
	f.puts++
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := params.ExpressionAttributeValues[":scope"].(*types.AttributeValueMemberS).Value
	all := f.items[scope]

	start := 0
	if params.ExclusiveStartKey != nil {
		after := attrString(params.ExclusiveStartKey, "sortKey")
		for start < len(all) && attrString(all[start], "sortKey") <= after {
			start++
		}
	}
	end := start + 2
	if end > len(all) {
		end = len(all)
	}
	out := &dynamodb.QueryOutput{Items: all[start:end], Count: int32(end - start)}
	if end < len(all) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"scope":   &types.AttributeValueMemberS{Value: scope},
			"sortKey": all[end-1]["sortKey"],
		}
	}
	return out, nil
}

func TestDynamoBackend(t *testing.T) {
	fake := newFakeDynamo()
	b := NewDynamoBackendWithClient(fake, "annotations")
	exerciseBackend(t, b)
	assert.Equal(t, 3, fake.puts)
	assert.NoError(t, b.Close())
}

func TestDynamoBackendPaginates(t *testing.T) {
	ctx := context.Background()
	b := NewDynamoBackendWithClient(newFakeDynamo(), "annotations")
	m := NewModel(b, Scope{DashboardItem: "5"}, testViewer)
	clock := day("2021-01-01")
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		_, err := m.CreateNow(ctx, content, day("2021-01-01"))
		require.NoError(t, err)
	}

	list, err := b.List(ctx, Scope{DashboardItem: "5"})
	require.NoError(t, err)
	require.Len(t, list, 5)
	var contents []string
	for _, a := range list {
		contents = append(contents, a.Content)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, contents)
}

func TestSortKeyLayoutOrdersChronologically(t *testing.T) {
	early := day("2021-01-01T10:00").Format(sortKeyLayout)
	later := day("2021-01-01T10:00").Add(500_000_000).Format(sortKeyLayout)
	assert.Less(t, early, later)
}
