// Package repository persists lead profiles in a DynamoDB table keyed by
// email. Counter updates use atomic ADD expressions so concurrent sessions
// for the same lead never lose increments.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"academy-agent/internal/domain"
)

const (
	attrGuestCount   = "guest_count"
	attrPostRegCount = "post_reg_count"

	timeLayout = "2006-01-02 15:04:05"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Client wraps the lead table.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a lead store Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: email},
	}
}

// GetStats reads the quota counters for a lead. A missing item is a fresh,
// unregistered lead with zero counts.
func (c *Client) GetStats(ctx context.Context, email string) (domain.ProfileStats, error) {
	if email == "" {
		return domain.ProfileStats{}, nil
	}
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.ProfileStats{}, fmt.Errorf("repository: GetStats: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.ProfileStats{}, nil
	}
	return domain.ProfileStats{
		Registered:   boolAttr(out.Item, "is_registered"),
		GuestCount:   intAttr(out.Item, attrGuestCount),
		PostRegCount: intAttr(out.Item, attrPostRegCount),
	}, nil
}

// IncrementCounter atomically adds 1 to the counter matching the lead's
// registration status.
func (c *Client) IncrementCounter(ctx context.Context, email string, registered bool) error {
	if email == "" {
		return errors.New("repository: IncrementCounter: email is required")
	}
	field := attrGuestCount
	if registered {
		field = attrPostRegCount
	}
	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(c.tableName),
		Key:              emailKey(email),
		UpdateExpression: aws.String("ADD " + field + " :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: IncrementCounter: %w", err)
	}
	return nil
}

// UpsertLead writes the provided profile fields, creating the item on first
// contact. created_at is set once; last_updated always. MarkRegistered flips
// is_registered and seeds the post-registration counter if absent.
func (c *Client) UpsertLead(ctx context.Context, up domain.LeadUpdate) error {
	if strings.TrimSpace(up.Email) == "" {
		return errors.New("repository: UpsertLead: email is required")
	}

	now := c.now().UTC().Format(timeLayout)
	expr := "SET last_updated = :t, created_at = if_not_exists(created_at, :t)"
	values := map[string]types.AttributeValue{
		":t": &types.AttributeValueMemberS{Value: now},
	}
	names := map[string]string{}

	if up.Name != "" {
		// "name" is a DynamoDB reserved word.
		expr += ", #nm = :n"
		names["#nm"] = "name"
		values[":n"] = &types.AttributeValueMemberS{Value: up.Name}
	}
	if up.School != "" {
		expr += ", school = :s"
		values[":s"] = &types.AttributeValueMemberS{Value: up.School}
	}
	if up.City != "" {
		expr += ", city = :c"
		values[":c"] = &types.AttributeValueMemberS{Value: up.City}
	}
	if up.Phone != "" {
		expr += ", phone = :p"
		values[":p"] = &types.AttributeValueMemberS{Value: up.Phone}
	}
	if up.MarkRegistered {
		expr += ", is_registered = :r, " + attrPostRegCount + " = if_not_exists(" + attrPostRegCount + ", :zero)"
		values[":r"] = &types.AttributeValueMemberBOOL{Value: true}
		values[":zero"] = &types.AttributeValueMemberN{Value: "0"}
	}

	in := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.tableName),
		Key:                       emailKey(up.Email),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		in.ExpressionAttributeNames = names
	}
	if _, err := c.api.UpdateItem(ctx, in); err != nil {
		return fmt.Errorf("repository: UpsertLead: %w", err)
	}
	return nil
}

// AppendHistory appends one entry to the lead's durable chat history.
// Best-effort by contract: callers log and continue on failure.
func (c *Client) AppendHistory(ctx context.Context, email, role, text string) error {
	if email == "" || text == "" {
		return nil
	}
	entry := &types.AttributeValueMemberL{Value: []types.AttributeValue{
		&types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"role":      &types.AttributeValueMemberS{Value: role},
			"text":      &types.AttributeValueMemberS{Value: text},
			"timestamp": &types.AttributeValueMemberS{Value: c.now().UTC().Format(timeLayout)},
		}},
	}}
	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(c.tableName),
		Key:              emailKey(email),
		UpdateExpression: aws.String("SET chat_history = list_append(if_not_exists(chat_history, :empty), :entry)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":entry": entry,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: AppendHistory: %w", err)
	}
	return nil
}

// ListLeads scans the full table for the admin dashboard, newest first.
// Never called on the per-turn path.
func (c *Client) ListLeads(ctx context.Context) ([]domain.Profile, error) {
	var profiles []domain.Profile
	var startKey map[string]types.AttributeValue
	for {
		out, err := c.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(c.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: ListLeads: %w", err)
		}
		for _, item := range out.Items {
			profiles = append(profiles, itemToProfile(item))
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].LastUpdated > profiles[j].LastUpdated
	})
	return profiles, nil
}

func itemToProfile(item map[string]types.AttributeValue) domain.Profile {
	return domain.Profile{
		Email:        strAttr(item, "email"),
		Name:         strAttr(item, "name"),
		School:       strAttr(item, "school"),
		City:         strAttr(item, "city"),
		Phone:        strAttr(item, "phone"),
		Registered:   boolAttr(item, "is_registered"),
		GuestCount:   intAttr(item, attrGuestCount),
		PostRegCount: intAttr(item, attrPostRegCount),
		CreatedAt:    strAttr(item, "created_at"),
		LastUpdated:  strAttr(item, "last_updated"),
	}
}

func strAttr(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func boolAttr(item map[string]types.AttributeValue, key string) bool {
	if v, ok := item[key].(*types.AttributeValueMemberBOOL); ok {
		return v.Value
	}
	return false
}

func intAttr(item map[string]types.AttributeValue, key string) int {
	if v, ok := item[key].(*types.AttributeValueMemberN); ok {
		if n, err := strconv.Atoi(v.Value); err == nil {
			return n
		}
	}
	return 0
}
