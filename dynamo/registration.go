package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/team-welcome/dandiya-registration/registration"
)

var _ registration.Repository = &DB{}

type registrationDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string

	ID                 uuid.UUID
	TicketID           string
	Name               string
	Email              string
	Phone              string
	Tickets            int
	AmountMinorUnits   int64
	Currency           string
	PaymentStatus      string
	PaymentProviderRef *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const (
	registrationEntityName = "REGISTRATION"
	registrationMetaSK     = "META"
)

func registrationPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", registrationEntityName, id)
}

func registrationKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: registrationPK(id)},
		"SK": &types.AttributeValueMemberS{Value: registrationMetaSK},
	}
}

func registrationToDynamo(reg registration.Registration) registrationDynamo {
	return registrationDynamo{
		PK:     registrationPK(reg.ID),
		SK:     registrationMetaSK,
		GSI1PK: registrationEntityName,
		// Sorted by creation time so list pages read newest-last.
		GSI1SK:             fmt.Sprintf("%s#%s", reg.CreatedAt.UTC().Format(time.RFC3339Nano), reg.ID),
		ID:                 reg.ID,
		TicketID:           reg.TicketID,
		Name:               reg.Name,
		Email:              reg.Email,
		Phone:              reg.Phone,
		Tickets:            reg.Tickets,
		AmountMinorUnits:   reg.TotalAmount.Amount(),
		Currency:           reg.TotalAmount.Currency().Code,
		PaymentStatus:      string(reg.PaymentStatus),
		PaymentProviderRef: reg.PaymentProviderRef,
		CreatedAt:          reg.CreatedAt,
		UpdatedAt:          reg.UpdatedAt,
	}
}

func dynamoToRegistration(dynReg registrationDynamo) registration.Registration {
	return registration.Registration{
		ID:                 dynReg.ID,
		TicketID:           dynReg.TicketID,
		Name:               dynReg.Name,
		Email:              dynReg.Email,
		Phone:              dynReg.Phone,
		Tickets:            dynReg.Tickets,
		TotalAmount:        money.New(dynReg.AmountMinorUnits, dynReg.Currency),
		PaymentStatus:      registration.PaymentStatus(dynReg.PaymentStatus),
		PaymentProviderRef: dynReg.PaymentProviderRef,
		CreatedAt:          dynReg.CreatedAt,
		UpdatedAt:          dynReg.UpdatedAt,
	}
}

func (d *DB) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoReg := registrationToDynamo(reg)

	regItem, err := attributevalue.MarshalMap(dynamoReg)
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate registration to dynamo model", err)
	}
	regExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      regItem,
		ConditionExpression:       regExpr.Condition(),
		ExpressionAttributeNames:  regExpr.Names(),
		ExpressionAttributeValues: regExpr.Values(),
	})
	if err != nil {
		var condFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condFailedErr) {
			return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("Registration with ID %q already exists", dynamoReg.ID), err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("CreateRegistration timed out")
		}
		return registration.NewFailedToWriteError("Failed PutItem call", err)
	}

	return nil
}

func (d *DB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       registrationKey(id),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("GetRegistration timed out")
		}
		return registration.Registration{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registration with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return registration.Registration{}, registration.NewRegistrationDoesNotExistError(fmt.Sprintf("Registration with ID %q not found", id), nil)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), nil
}

// MarkPaymentCompleted transitions pending -> completed. Losing the
// conditional write returns updated == false with no error: whichever
// writer reached the row first already finished the job.
func (d *DB) MarkPaymentCompleted(ctx context.Context, id uuid.UUID) (registration.Registration, bool, error) {
	return d.setPaymentStatus(ctx, id, registration.STATUS_COMPLETED)
}

// MarkPaymentFailed transitions pending -> failed with the same
// no-op-on-loss semantics as MarkPaymentCompleted.
func (d *DB) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (registration.Registration, bool, error) {
	return d.setPaymentStatus(ctx, id, registration.STATUS_FAILED)
}

func (d *DB) setPaymentStatus(ctx context.Context, id uuid.UUID, status registration.PaymentStatus) (registration.Registration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	expr := exprMustBuild(expression.NewBuilder().
		WithUpdate(expression.
			Set(expression.Name("PaymentStatus"), expression.Value(string(status))).
			Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC()))).
		WithCondition(expression.Name("PaymentStatus").Equal(expression.Value(string(registration.STATUS_PENDING)))))

	resp, err := d.dynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       registrationKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condFailedErr) {
			return registration.Registration{}, false, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, false, registration.NewTimeoutError("setPaymentStatus timed out")
		}
		return registration.Registration{}, false, registration.NewFailedToWriteError("Failed UpdateItem call", err)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Attributes, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), true, nil
}

// ConfirmRegistrationManually is the operator escape hatch: it
// completes the row only if the ticket ID matches and the row is still
// pending. Any condition failure is a conflict, since the operator
// needs to know the override did not take.
func (d *DB) ConfirmRegistrationManually(ctx context.Context, id uuid.UUID, ticketID string) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	expr := exprMustBuild(expression.NewBuilder().
		WithUpdate(expression.
			Set(expression.Name("PaymentStatus"), expression.Value(string(registration.STATUS_COMPLETED))).
			Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC()))).
		WithCondition(expression.Name("PaymentStatus").Equal(expression.Value(string(registration.STATUS_PENDING))).
			And(expression.Name("TicketID").Equal(expression.Value(ticketID)))))

	resp, err := d.dynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       registrationKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condFailedErr) {
			return registration.Registration{}, registration.NewStatusConflictError(fmt.Sprintf("Registration %q is not pending or ticket ID does not match", id), err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("ConfirmRegistrationManually timed out")
		}
		return registration.Registration{}, registration.NewFailedToWriteError("Failed UpdateItem call", err)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Attributes, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), nil
}

func (d *DB) GetRegistrations(ctx context.Context, limit int32, cursor *string) (registration.GetRegistrationsResponse, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(registrationEntityName))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	var startKey map[string]types.AttributeValue
	if cursor != nil {
		startKey, err = cursorToLastEval(*cursor)
		if err != nil {
			return registration.GetRegistrationsResponse{}, registration.NewInvalidCursorError("Invalid cursor", err)
		}
	}

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		// Fetch 1 more than limit to check if there is another page or not
		Limit:             aws.Int32(limit + 1),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return registration.GetRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to fetch registrations from dynamo", err)
	}

	var dynamoItems []registrationDynamo
	err = attributevalue.UnmarshalListOfMaps(result.Items, &dynamoItems)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal dynamo registrations: %s", err))
	}

	hasNextPage := len(dynamoItems) > int(limit)

	var newCursor *string
	if hasNextPage && len(result.LastEvaluatedKey) > 0 {
		// Can't use LastEvalKey directly because we grabbed an extra item to check for next page
		lastItemGivenToUser := result.Items[len(result.Items)-2]
		lastItemKey := getKeyFromItem(result.LastEvaluatedKey, lastItemGivenToUser)
		c, err := lastEvalKeyToCursor(lastItemKey)
		if err != nil {
			panic(fmt.Sprintf("failed to make cursor from lastEvalKey: %s", err))
		}
		newCursor = &c
	}

	regs := make([]registration.Registration, 0, min(int(limit), len(dynamoItems)))
	for _, v := range dynamoItems[:min(int(limit), len(dynamoItems))] {
		regs = append(regs, dynamoToRegistration(v))
	}

	return registration.GetRegistrationsResponse{
		Data:        regs,
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}
