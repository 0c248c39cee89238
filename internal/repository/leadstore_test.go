package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"academy-agent/internal/domain"
)

func leadUpdate(email string) domain.LeadUpdate {
	return domain.LeadUpdate{Email: email}
}

type fakeDynamo struct {
	getOut  *dynamodb.GetItemOutput
	getErr  error
	getIn   *dynamodb.GetItemInput
	updErr  error
	updIns  []*dynamodb.UpdateItemInput
	scanOut []*dynamodb.ScanOutput
	scanErr error
	scanIns []*dynamodb.ScanInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getIn = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updIns = append(f.updIns, in)
	return &dynamodb.UpdateItemOutput{}, f.updErr
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanIns = append(f.scanIns, in)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := f.scanOut[len(f.scanIns)-1]
	return out, nil
}

func newTestClient(t *testing.T, api *fakeDynamo) *Client {
	t.Helper()
	c, err := New(api, "leads-table")
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC) }
	return c
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "leads-table")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestGetStats_MissingItemIsFreshLead(t *testing.T) {
	api := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	c := newTestClient(t, api)

	stats, err := c.GetStats(context.Background(), "asha@example.com")
	require.NoError(t, err)
	require.False(t, stats.Registered)
	require.Zero(t, stats.GuestCount)
	require.Zero(t, stats.PostRegCount)

	require.Equal(t, "leads-table", *api.getIn.TableName)
	require.True(t, *api.getIn.ConsistentRead)
}

func TestGetStats_ReadsCounters(t *testing.T) {
	api := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"email":          &types.AttributeValueMemberS{Value: "asha@example.com"},
		"is_registered":  &types.AttributeValueMemberBOOL{Value: true},
		"guest_count":    &types.AttributeValueMemberN{Value: "3"},
		"post_reg_count": &types.AttributeValueMemberN{Value: "2"},
	}}}
	c := newTestClient(t, api)

	stats, err := c.GetStats(context.Background(), "asha@example.com")
	require.NoError(t, err)
	require.True(t, stats.Registered)
	require.Equal(t, 3, stats.GuestCount)
	require.Equal(t, 2, stats.PostRegCount)
}

func TestGetStats_EmptyEmailShortCircuits(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	stats, err := c.GetStats(context.Background(), "")
	require.NoError(t, err)
	require.Zero(t, stats)
	require.Nil(t, api.getIn)
}

func TestIncrementCounter_PicksCounterByRegistration(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	require.NoError(t, c.IncrementCounter(context.Background(), "asha@example.com", false))
	require.NoError(t, c.IncrementCounter(context.Background(), "asha@example.com", true))

	require.Len(t, api.updIns, 2)
	require.Equal(t, "ADD guest_count :inc", *api.updIns[0].UpdateExpression)
	require.Equal(t, "ADD post_reg_count :inc", *api.updIns[1].UpdateExpression)
	inc := api.updIns[0].ExpressionAttributeValues[":inc"].(*types.AttributeValueMemberN)
	require.Equal(t, "1", inc.Value)
}

func TestUpsertLead_EmailOnlyCreatesItem(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	require.NoError(t, c.UpsertLead(context.Background(), leadUpdate("asha@example.com")))

	require.Len(t, api.updIns, 1)
	in := api.updIns[0]
	require.Equal(t, "SET last_updated = :t, created_at = if_not_exists(created_at, :t)", *in.UpdateExpression)
	ts := in.ExpressionAttributeValues[":t"].(*types.AttributeValueMemberS)
	require.Equal(t, "2025-03-14 10:30:00", ts.Value)
	key := in.Key["email"].(*types.AttributeValueMemberS)
	require.Equal(t, "asha@example.com", key.Value)
	require.Empty(t, in.ExpressionAttributeNames)
}

func TestUpsertLead_FullRegistration(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	up := leadUpdate("asha@example.com")
	up.Name = "Rahul"
	up.School = "DPS"
	up.City = "Chennai"
	up.Phone = "+919876543210"
	up.MarkRegistered = true
	require.NoError(t, c.UpsertLead(context.Background(), up))

	in := api.updIns[0]
	expr := *in.UpdateExpression
	require.Contains(t, expr, "#nm = :n")
	require.Contains(t, expr, "school = :s")
	require.Contains(t, expr, "city = :c")
	require.Contains(t, expr, "phone = :p")
	require.Contains(t, expr, "is_registered = :r")
	require.Contains(t, expr, "post_reg_count = if_not_exists(post_reg_count, :zero)")
	require.Equal(t, map[string]string{"#nm": "name"}, in.ExpressionAttributeNames)
	reg := in.ExpressionAttributeValues[":r"].(*types.AttributeValueMemberBOOL)
	require.True(t, reg.Value)
}

func TestUpsertLead_RequiresEmail(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{})
	require.Error(t, c.UpsertLead(context.Background(), leadUpdate("  ")))
}

func TestAppendHistory_BuildsListAppend(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	require.NoError(t, c.AppendHistory(context.Background(), "asha@example.com", "user", "hello"))

	in := api.updIns[0]
	require.Equal(t, "SET chat_history = list_append(if_not_exists(chat_history, :empty), :entry)", *in.UpdateExpression)

	entry := in.ExpressionAttributeValues[":entry"].(*types.AttributeValueMemberL)
	require.Len(t, entry.Value, 1)
	m := entry.Value[0].(*types.AttributeValueMemberM)
	require.Equal(t, "user", m.Value["role"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "hello", m.Value["text"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "2025-03-14 10:30:00", m.Value["timestamp"].(*types.AttributeValueMemberS).Value)
}

func TestAppendHistory_SkipsBlankInputs(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	require.NoError(t, c.AppendHistory(context.Background(), "", "user", "hello"))
	require.NoError(t, c.AppendHistory(context.Background(), "asha@example.com", "user", ""))
	require.Empty(t, api.updIns)
}

func TestListLeads_PaginatesAndSortsNewestFirst(t *testing.T) {
	lastKey := map[string]types.AttributeValue{"email": &types.AttributeValueMemberS{Value: "a@example.com"}}
	api := &fakeDynamo{scanOut: []*dynamodb.ScanOutput{
		{
			Items: []map[string]types.AttributeValue{{
				"email":        &types.AttributeValueMemberS{Value: "old@example.com"},
				"last_updated": &types.AttributeValueMemberS{Value: "2025-03-10 09:00:00"},
			}},
			LastEvaluatedKey: lastKey,
		},
		{
			Items: []map[string]types.AttributeValue{{
				"email":         &types.AttributeValueMemberS{Value: "new@example.com"},
				"last_updated":  &types.AttributeValueMemberS{Value: "2025-03-14 10:00:00"},
				"is_registered": &types.AttributeValueMemberBOOL{Value: true},
				"guest_count":   &types.AttributeValueMemberN{Value: "3"},
			}},
		},
	}}
	c := newTestClient(t, api)

	leads, err := c.ListLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)
	require.Equal(t, "new@example.com", leads[0].Email)
	require.True(t, leads[0].Registered)
	require.Equal(t, 3, leads[0].GuestCount)
	require.Equal(t, "old@example.com", leads[1].Email)

	require.Len(t, api.scanIns, 2)
	require.Nil(t, api.scanIns[0].ExclusiveStartKey)
	require.Equal(t, lastKey, api.scanIns[1].ExclusiveStartKey)
}

func TestListLeads_PropagatesScanError(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{scanErr: errors.New("throttled")})
	_, err := c.ListLeads(context.Background())
	require.Error(t, err)
}
