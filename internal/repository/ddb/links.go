package ddb

import (
	"context"
	"time"

	"messynotes-backend/internal/domain"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// CreateLink saves a new link item. The ordered (source, target) pair forms
// the sort key, so at most one link per pair can ever exist; creating a
// duplicate fails the existence condition.
func (r *ddbRepository) CreateLink(ctx context.Context, link domain.Link) error {
	item, err := attributevalue.MarshalMap(ddbLink{
		PK:        userPK(link.UserID),
		SK:        linkSK(link.SourceID, link.TargetID),
		LinkID:    link.ID,
		UserID:    link.UserID,
		SourceID:  link.SourceID,
		TargetID:  link.TargetID,
		Strength:  link.Strength,
		Reason:    link.Reason,
		CreatedAt: link.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: link.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal link item")
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
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
			return appErrors.NewValidation("link already exists for this pair")
		}
		return wrapDynamoError(err, "failed to put link item")
	}
	return nil
}

// FindLink retrieves the link for an ordered (source, target) pair.
func (r *ddbRepository) FindLink(ctx context.Context, userID, sourceID, targetID string) (*domain.Link, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": linkSK(sourceID, targetID),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to marshal link key")
	}

	out, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key:       key,
	})
	if err != nil {
		return nil, wrapDynamoError(err, "failed to get link item")
	}
	if out.Item == nil {
		return nil, appErrors.NewNotFound("link not found")
	}

	var item ddbLink
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal link item")
	}
	link := fromDDBLink(item)
	return &link, nil
}

// ListLinks returns all of a user's links.
func (r *ddbRepository) ListLinks(ctx context.Context, userID string) ([]domain.Link, error) {
	items, err := r.queryPrefix(ctx, userID, skLinkPrefix)
	if err != nil {
		return nil, err
	}

	links := make([]domain.Link, 0, len(items))
	for _, raw := range items {
		var item ddbLink
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, appErrors.Wrap(err, "failed to unmarshal link item")
		}
		links = append(links, fromDDBLink(item))
	}
	return links, nil
}

// IncrementLinkStrength atomically adds delta to an existing link's
// strength using a DynamoDB ADD update.
func (r *ddbRepository) IncrementLinkStrength(ctx context.Context, userID, sourceID, targetID string, delta float64) error {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": linkSK(sourceID, targetID),
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal link key")
	}

	update := expression.
		Add(expression.Name("Strength"), expression.Value(delta)).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))
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
			return appErrors.NewNotFound("link not found")
		}
		return wrapDynamoError(err, "failed to increment link strength")
	}
	return nil
}

// CountLinksForNote returns incoming plus outgoing link count for a note.
func (r *ddbRepository) CountLinksForNote(ctx context.Context, userID, noteID string) (int, error) {
	links, err := r.ListLinks(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range links {
		if links[i].Touches(noteID) {
			count++
		}
	}
	return count, nil
}

// DeleteLinksForNote removes every link touching the note, in either
// direction.
func (r *ddbRepository) DeleteLinksForNote(ctx context.Context, userID, noteID string) error {
	links, err := r.ListLinks(ctx, userID)
	if err != nil {
		return err
	}

	for i := range links {
		if !links[i].Touches(noteID) {
			continue
		}
		key, err := attributevalue.MarshalMap(map[string]string{
			"PK": userPK(userID),
			"SK": linkSK(links[i].SourceID, links[i].TargetID),
		})
		if err != nil {
			return appErrors.Wrap(err, "failed to marshal link key")
		}
		_, err = r.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.config.TableName),
			Key:       key,
		})
		if err != nil {
			return wrapDynamoError(err, "failed to delete link item")
		}
	}
	return nil
}

func fromDDBLink(item ddbLink) domain.Link {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return domain.Link{
		ID:        item.LinkID,
		UserID:    item.UserID,
		SourceID:  item.SourceID,
		TargetID:  item.TargetID,
		Strength:  item.Strength,
		Reason:    item.Reason,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
