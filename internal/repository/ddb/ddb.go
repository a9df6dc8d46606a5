// Package ddb implements the repository interface using AWS DynamoDB.
// This is the only layer that should have knowledge of DynamoDB specifics.
//
// Single-table layout, one item collection per user:
//
//	PK = USER#<userID>
//	SK = NOTE#<noteID>            note item
//	SK = LINK#<sourceID>#<targetID>  link item (ordered pair is the key)
//	SK = GRAPH                    graph canvas metadata
//	SK = CANVAS#<noteID>          per-note mindmap canvas
package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"messynotes-backend/internal/domain"
	"messynotes-backend/internal/repository"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	skNotePrefix   = "NOTE#"
	skLinkPrefix   = "LINK#"
	skGraph        = "GRAPH"
	skCanvasPrefix = "CANVAS#"
)

// ddbNote represents the structure of a note item in DynamoDB.
type ddbNote struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	NoteID    string    `dynamodbav:"NoteID"`
	UserID    string    `dynamodbav:"UserID"`
	Title     string    `dynamodbav:"Title"`
	RawText   string    `dynamodbav:"RawText"`
	Content   []byte    `dynamodbav:"Content,omitempty"`
	Embedding []float64 `dynamodbav:"Embedding,omitempty"`
	X         float64   `dynamodbav:"X"`
	Y         float64   `dynamodbav:"Y"`
	Weight    float64   `dynamodbav:"Weight"`
	Sticky    bool      `dynamodbav:"Sticky"`
	Ephemeral bool      `dynamodbav:"Ephemeral"`
	Archived  bool      `dynamodbav:"Archived"`
	NoteType  string    `dynamodbav:"NoteType"`
	Color     string    `dynamodbav:"Color"`
	CreatedAt string    `dynamodbav:"CreatedAt"`
	UpdatedAt string    `dynamodbav:"UpdatedAt"`
}

// ddbLink represents a link item in DynamoDB.
type ddbLink struct {
	PK        string  `dynamodbav:"PK"`
	SK        string  `dynamodbav:"SK"`
	LinkID    string  `dynamodbav:"LinkID"`
	UserID    string  `dynamodbav:"UserID"`
	SourceID  string  `dynamodbav:"SourceID"`
	TargetID  string  `dynamodbav:"TargetID"`
	Strength  float64 `dynamodbav:"Strength"`
	Reason    string  `dynamodbav:"Reason"`
	CreatedAt string  `dynamodbav:"CreatedAt"`
	UpdatedAt string  `dynamodbav:"UpdatedAt"`
}

// ddbGraph represents the graph metadata item in DynamoDB.
type ddbGraph struct {
	PK    string               `dynamodbav:"PK"`
	SK    string               `dynamodbav:"SK"`
	Graph domain.GraphMetadata `dynamodbav:"Graph"`
}

// ddbRepository is the concrete implementation for DynamoDB.
type ddbRepository struct {
	dbClient *dynamodb.Client
	config   repository.Config
}

// NewRepository creates a new instance of the DynamoDB repository.
func NewRepository(dbClient *dynamodb.Client, tableName, indexName string) repository.Repository {
	return &ddbRepository{
		dbClient: dbClient,
		config:   repository.NewConfig(tableName, indexName),
	}
}

func userPK(userID string) string {
	return "USER#" + userID
}

func noteSK(noteID string) string {
	return skNotePrefix + noteID
}

func linkSK(sourceID, targetID string) string {
	return fmt.Sprintf("%s%s#%s", skLinkPrefix, sourceID, targetID)
}

func canvasSK(noteID string) string {
	return skCanvasPrefix + noteID
}

// CreateNote saves a new note item.
func (r *ddbRepository) CreateNote(ctx context.Context, note domain.Note) error {
	item, err := attributevalue.MarshalMap(toDDBNote(note))
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal note item")
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.config.TableName),
		Item:      item,
	})
	if err != nil {
		return wrapDynamoError(err, "failed to put note item")
	}
	return nil
}

// FindNoteByID retrieves a single note.
func (r *ddbRepository) FindNoteByID(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": noteSK(noteID),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to marshal note key")
	}

	out, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key:       key,
	})
	if err != nil {
		return nil, wrapDynamoError(err, "failed to get note item")
	}
	if out.Item == nil {
		return nil, appErrors.NewNotFound("note not found")
	}

	var item ddbNote
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal note item")
	}
	note := fromDDBNote(item)
	return &note, nil
}

// ListNotes returns all of a user's notes ordered by updatedAt descending.
func (r *ddbRepository) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	items, err := r.queryPrefix(ctx, userID, skNotePrefix)
	if err != nil {
		return nil, err
	}

	notes := make([]domain.Note, 0, len(items))
	for _, raw := range items {
		var item ddbNote
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, appErrors.Wrap(err, "failed to unmarshal note item")
		}
		notes = append(notes, fromDDBNote(item))
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

// ListActiveNotes returns non-archived notes only.
func (r *ddbRepository) ListActiveNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	all, err := r.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, n := range all {
		if n.Active() {
			active = append(active, n)
		}
	}
	return active, nil
}

// UpdateNote replaces a note item, requiring that it already exists.
func (r *ddbRepository) UpdateNote(ctx context.Context, note domain.Note) error {
	item, err := attributevalue.MarshalMap(toDDBNote(note))
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal note item")
	}

	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return appErrors.Wrap(err, "failed to build condition expression")
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.config.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return appErrors.NewNotFound("note not found")
		}
		return appErrors.Wrap(err, "failed to update note item")
	}
	return nil
}

// UpdateNotePosition writes only the spatial fields and the ephemeral flag.
func (r *ddbRepository) UpdateNotePosition(ctx context.Context, userID, noteID string, x, y float64, ephemeral bool) error {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": noteSK(noteID),
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal note key")
	}

	update := expression.
		Set(expression.Name("X"), expression.Value(x)).
		Set(expression.Name("Y"), expression.Value(y)).
		Set(expression.Name("Ephemeral"), expression.Value(ephemeral))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return appErrors.Wrap(err, "failed to build update expression")
	}

	_, err = r.dbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.config.TableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return appErrors.NewNotFound("note not found")
		}
		return appErrors.Wrap(err, "failed to update note position")
	}
	return nil
}

// DeleteNote removes the note item. Link and graph cleanup is the service
// layer's responsibility.
func (r *ddbRepository) DeleteNote(ctx context.Context, userID, noteID string) error {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": noteSK(noteID),
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal note key")
	}

	_, err = r.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.config.TableName),
		Key:       key,
	})
	if err != nil {
		return wrapDynamoError(err, "failed to delete note item")
	}
	return nil
}

// DeleteAllNotes removes every item in the user's collection and returns
// the number of note items removed.
func (r *ddbRepository) DeleteAllNotes(ctx context.Context, userID string) (int, error) {
	items, err := r.queryPrefix(ctx, userID, "")
	if err != nil {
		return 0, err
	}

	noteCount := 0
	var writes []types.WriteRequest
	for _, raw := range items {
		sk := stringAttr(raw["SK"])
		if strings.HasPrefix(sk, skNotePrefix) {
			noteCount++
		}
		writes = append(writes, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"PK": raw["PK"],
					"SK": raw["SK"],
				},
			},
		})
	}

	// BatchWriteItem accepts at most 25 requests per call.
	for start := 0; start < len(writes); start += 25 {
		end := start + 25
		if end > len(writes) {
			end = len(writes)
		}
		_, err := r.dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.config.TableName: writes[start:end],
			},
		})
		if err != nil {
			return noteCount, wrapDynamoError(err, "failed to batch delete user items")
		}
	}
	return noteCount, nil
}

// ListUserIDs scans the table for distinct user partition keys.
func (r *ddbRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	proj := expression.NamesList(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build projection expression")
	}

	seen := make(map[string]struct{})
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.dbClient.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(r.config.TableName),
			ProjectionExpression:     expr.Projection(),
			ExpressionAttributeNames: expr.Names(),
			ExclusiveStartKey:        startKey,
		})
		if err != nil {
			return nil, wrapDynamoError(err, "failed to scan user partitions")
		}
		for _, raw := range out.Items {
			pk := stringAttr(raw["PK"])
			if id, ok := strings.CutPrefix(pk, "USER#"); ok {
				seen[id] = struct{}{}
			}
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// queryPrefix returns raw items in the user's collection whose SK has the
// given prefix; an empty prefix returns the whole collection.
func (r *ddbRepository) queryPrefix(ctx context.Context, userID, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID)))
	if prefix != "" {
		keyCond = keyCond.And(expression.Key("SK").BeginsWith(prefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build key condition")
	}

	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.config.TableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, wrapDynamoError(err, "failed to query user collection")
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

func toDDBNote(n domain.Note) ddbNote {
	return ddbNote{
		PK:        userPK(n.UserID),
		SK:        noteSK(n.ID),
		NoteID:    n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		RawText:   n.RawText,
		Content:   n.Content,
		Embedding: n.Embedding,
		X:         n.X,
		Y:         n.Y,
		Weight:    n.Weight,
		Sticky:    n.Sticky,
		Ephemeral: n.Ephemeral,
		Archived:  n.Archived,
		NoteType:  n.NoteType,
		Color:     n.Color,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromDDBNote(item ddbNote) domain.Note {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return domain.Note{
		ID:        item.NoteID,
		UserID:    item.UserID,
		Title:     item.Title,
		RawText:   item.RawText,
		Content:   item.Content,
		Embedding: item.Embedding,
		X:         item.X,
		Y:         item.Y,
		Weight:    item.Weight,
		Sticky:    item.Sticky,
		Ephemeral: item.Ephemeral,
		Archived:  item.Archived,
		NoteType:  item.NoteType,
		Color:     item.Color,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

func stringAttr(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// wrapDynamoError wraps a DynamoDB call failure, labeling throughput
// rejections so callers and logs can tell load problems from bugs.
func wrapDynamoError(err error, msg string) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return appErrors.Wrap(err, msg+": throttled by DynamoDB")
		}
	}
	return appErrors.Wrap(err, msg)
}
