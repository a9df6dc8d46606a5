package ddb

import (
	"context"

	"messynotes-backend/internal/domain"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// GetGraphMetadata loads the user's graph canvas state. A user with no
// stored graph gets an empty one, matching a fresh install.
func (r *ddbRepository) GetGraphMetadata(ctx context.Context, userID string) (*domain.GraphMetadata, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": skGraph,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to marshal graph key")
	}

	out, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key:       key,
	})
	if err != nil {
		return nil, wrapDynamoError(err, "failed to get graph item")
	}
	if out.Item == nil {
		meta := domain.NewGraphMetadata()
		return &meta, nil
	}

	var item ddbGraph
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal graph item")
	}
	if item.Graph.Nodes == nil {
		item.Graph.Nodes = make(map[string]domain.GraphNodeMeta)
	}
	return &item.Graph, nil
}

// SaveGraphMetadata replaces the user's graph canvas state.
func (r *ddbRepository) SaveGraphMetadata(ctx context.Context, userID string, meta domain.GraphMetadata) error {
	item, err := attributevalue.MarshalMap(ddbGraph{
		PK:    userPK(userID),
		SK:    skGraph,
		Graph: meta,
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal graph item")
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.config.TableName),
		Item:      item,
	})
	if err != nil {
		return wrapDynamoError(err, "failed to put graph item")
	}
	return nil
}

// ddbCanvas represents a per-note canvas item in DynamoDB.
type ddbCanvas struct {
	PK     string            `dynamodbav:"PK"`
	SK     string            `dynamodbav:"SK"`
	NoteID string            `dynamodbav:"NoteID"`
	Canvas domain.CanvasData `dynamodbav:"Canvas"`
}

// GetCanvas loads a note's mindmap canvas. A note that never had canvas
// state saved reads back as an empty canvas.
func (r *ddbRepository) GetCanvas(ctx context.Context, userID, noteID string) (*domain.CanvasData, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": canvasSK(noteID),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to marshal canvas key")
	}

	out, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key:       key,
	})
	if err != nil {
		return nil, wrapDynamoError(err, "failed to get canvas item")
	}
	if out.Item == nil {
		canvas := domain.NewCanvasData()
		return &canvas, nil
	}

	var item ddbCanvas
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal canvas item")
	}
	if item.Canvas.Nodes == nil {
		item.Canvas.Nodes = make(map[string]domain.CanvasNodeMeta)
	}
	return &item.Canvas, nil
}

// SaveCanvas replaces a note's mindmap canvas.
func (r *ddbRepository) SaveCanvas(ctx context.Context, userID, noteID string, canvas domain.CanvasData) error {
	item, err := attributevalue.MarshalMap(ddbCanvas{
		PK:     userPK(userID),
		SK:     canvasSK(noteID),
		NoteID: noteID,
		Canvas: canvas,
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal canvas item")
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.config.TableName),
		Item:      item,
	})
	if err != nil {
		return wrapDynamoError(err, "failed to put canvas item")
	}
	return nil
}

// DeleteCanvas removes a note's canvas item. Deleting a canvas that was
// never saved is a no-op.
func (r *ddbRepository) DeleteCanvas(ctx context.Context, userID, noteID string) error {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": canvasSK(noteID),
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal canvas key")
	}

	_, err = r.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.config.TableName),
		Key:       key,
	})
	if err != nil {
		return wrapDynamoError(err, "failed to delete canvas item")
	}
	return nil
}
