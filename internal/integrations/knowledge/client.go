// Package knowledge retrieves academy knowledge-base passages from Weaviate
// via nearText semantic search.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	// DefaultClassName is the Weaviate class holding ingested passages.
	DefaultClassName = "Passage"

	contentField = "content"
)

// Client performs top-k passage retrieval.
type Client struct {
	w         *weaviate.Client
	className string
}

// New wraps a Weaviate client for the given passage class.
func New(w *weaviate.Client, className string) (*Client, error) {
	if w == nil {
		return nil, errors.New("knowledge: weaviate client must not be nil")
	}
	if strings.TrimSpace(className) == "" {
		className = DefaultClassName
	}
	return &Client{w: w, className: className}, nil
}

// Search returns the texts of the limit most relevant passages. An empty
// index yields an empty result, not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 4
	}

	nearText := c.w.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	result, err := c.w.GraphQL().Get().
		WithClassName(c.className).
		WithFields(graphql.Field{Name: contentField}).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("knowledge: search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("knowledge: search: %s", result.Errors[0].Message)
	}
	return passagesFromResponse(result, c.className), nil
}

// passagesFromResponse walks the loosely-typed GraphQL payload and collects
// the non-empty content strings, tolerating any missing level.
func passagesFromResponse(resp *models.GraphQLResponse, className string) []string {
	if resp == nil {
		return nil
	}
	get, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	rows, ok := get[className].([]interface{})
	if !ok {
		return nil
	}
	passages := make([]string, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		if content, _ := obj[contentField].(string); content != "" {
			passages = append(passages, content)
		}
	}
	return passages
}
