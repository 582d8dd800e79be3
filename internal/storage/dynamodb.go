package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Row id 0 of each table holds the id sequence, not a record.
const sequenceRowID = 0

// DynamoDBAPI interface for mocking
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type DynamoDBFleetStorage struct {
	client       DynamoDBAPI
	fleetsTable  string
	driversTable string
}

func NewDynamoDBFleetStorage(client DynamoDBAPI, fleetsTable, driversTable string) *DynamoDBFleetStorage {
	return &DynamoDBFleetStorage{
		client:       client,
		fleetsTable:  fleetsTable,
		driversTable: driversTable,
	}
}

func (d *DynamoDBFleetStorage) CreateFleet(ctx context.Context, fleet *Fleet) error {
	id, err := d.nextID(ctx, d.fleetsTable)
	if err != nil {
		return fmt.Errorf("failed to allocate fleet id: %w", err)
	}

	fleet.ID = id
	if fleet.CreatedAt.IsZero() {
		fleet.CreatedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(fleet)
	if err != nil {
		return fmt.Errorf("failed to marshal fleet: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.fleetsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put fleet: %w", err)
	}

	return nil
}

func (d *DynamoDBFleetStorage) GetFleet(ctx context.Context, fleetID int64) (*Fleet, error) {
	if !isRecordID(fleetID) {
		return nil, fmt.Errorf("fleet %d: %w", fleetID, ErrFleetNotFound)
	}

	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.fleetsTable),
		Key:       idKey(fleetID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get fleet: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("fleet %d: %w", fleetID, ErrFleetNotFound)
	}

	var fleet Fleet
	if err := attributevalue.UnmarshalMap(result.Item, &fleet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fleet: %w", err)
	}

	return &fleet, nil
}

func (d *DynamoDBFleetStorage) ListFleets(ctx context.Context) ([]*Fleet, error) {
	items, err := d.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(d.fleetsTable),
		FilterExpression: aws.String("#id > :sequence"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sequence": numberValue(sequenceRowID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan fleets: %w", err)
	}

	fleets := make([]*Fleet, 0, len(items))
	for _, item := range items {
		var fleet Fleet
		if err := attributevalue.UnmarshalMap(item, &fleet); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fleet: %w", err)
		}
		fleets = append(fleets, &fleet)
	}

	sort.Slice(fleets, func(i, j int) bool { return fleets[i].ID < fleets[j].ID })
	return fleets, nil
}

func (d *DynamoDBFleetStorage) DeleteFleet(ctx context.Context, fleetID int64) error {
	if !isRecordID(fleetID) {
		return fmt.Errorf("fleet %d: %w", fleetID, ErrFleetNotFound)
	}

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(d.fleetsTable),
		Key:                 idKey(fleetID),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("fleet %d: %w", fleetID, ErrFleetNotFound)
		}
		return fmt.Errorf("failed to delete fleet: %w", err)
	}

	return nil
}

func (d *DynamoDBFleetStorage) CreateDriver(ctx context.Context, driver *Driver) error {
	if driver.ID < 0 {
		return fmt.Errorf("driver %d: invalid id", driver.ID)
	}
	if driver.ID == 0 {
		id, err := d.nextID(ctx, d.driversTable)
		if err != nil {
			return fmt.Errorf("failed to allocate driver id: %w", err)
		}
		driver.ID = id
	}

	item, err := attributevalue.MarshalMap(driver)
	if err != nil {
		return fmt.Errorf("failed to marshal driver: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.driversTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("driver %d: %w", driver.ID, ErrDriverExists)
		}
		return fmt.Errorf("failed to put driver: %w", err)
	}

	return nil
}

func (d *DynamoDBFleetStorage) GetDriver(ctx context.Context, driverID int64) (*Driver, error) {
	if !isRecordID(driverID) {
		return nil, fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.driversTable),
		Key:       idKey(driverID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	var driver Driver
	if err := attributevalue.UnmarshalMap(result.Item, &driver); err != nil {
		return nil, fmt.Errorf("failed to unmarshal driver: %w", err)
	}

	return &driver, nil
}

func (d *DynamoDBFleetStorage) ListDriversByFleet(ctx context.Context, fleetID int64) ([]*Driver, error) {
	items, err := d.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(d.driversTable),
		FilterExpression: aws.String("contains(fleet_ids, :fleet)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fleet": numberValue(fleetID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan drivers by fleet: %w", err)
	}

	drivers := make([]*Driver, 0, len(items))
	for _, item := range items {
		var driver Driver
		if err := attributevalue.UnmarshalMap(item, &driver); err != nil {
			return nil, fmt.Errorf("failed to unmarshal driver: %w", err)
		}
		drivers = append(drivers, &driver)
	}

	sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
	return drivers, nil
}

func (d *DynamoDBFleetStorage) ListInvitableDrivers(ctx context.Context, fleetID int64) ([]*Driver, error) {
	items, err := d.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(d.driversTable),
		FilterExpression: aws.String("#id > :sequence AND NOT contains(fleet_ids, :fleet) AND NOT contains(pending_fleet_ids, :fleet)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sequence": numberValue(sequenceRowID),
			":fleet":    numberValue(fleetID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan invitable drivers: %w", err)
	}

	drivers := make([]*Driver, 0, len(items))
	for _, item := range items {
		var driver Driver
		if err := attributevalue.UnmarshalMap(item, &driver); err != nil {
			return nil, fmt.Errorf("failed to unmarshal driver: %w", err)
		}
		drivers = append(drivers, &driver)
	}

	sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
	return drivers, nil
}

func (d *DynamoDBFleetStorage) AddDriverToFleet(ctx context.Context, driverID, fleetID int64) error {
	return d.updateMembership(ctx, driverID, "ADD fleet_ids :fleet DELETE pending_fleet_ids :fleet", fleetID)
}

func (d *DynamoDBFleetStorage) RemoveDriverFromFleet(ctx context.Context, driverID, fleetID int64) error {
	return d.updateMembership(ctx, driverID, "DELETE fleet_ids :fleet", fleetID)
}

func (d *DynamoDBFleetStorage) AddPendingFleet(ctx context.Context, driverID, fleetID int64) error {
	return d.updateMembership(ctx, driverID, "ADD pending_fleet_ids :fleet", fleetID)
}

func (d *DynamoDBFleetStorage) RemovePendingFleet(ctx context.Context, driverID, fleetID int64) error {
	return d.updateMembership(ctx, driverID, "DELETE pending_fleet_ids :fleet", fleetID)
}

func (d *DynamoDBFleetStorage) updateMembership(ctx context.Context, driverID int64, updateExpression string, fleetID int64) error {
	if !isRecordID(driverID) {
		return fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
	}

	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.driversTable),
		Key:                 idKey(driverID),
		UpdateExpression:    aws.String(updateExpression),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fleet": &types.AttributeValueMemberNS{Value: []string{strconv.FormatInt(fleetID, 10)}},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("driver %d: %w", driverID, ErrDriverNotFound)
		}
		return fmt.Errorf("failed to update driver membership: %w", err)
	}

	return nil
}

// nextID atomically increments the sequence row of a table.
func (d *DynamoDBFleetStorage) nextID(ctx context.Context, table string) (int64, error) {
	result, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(table),
		Key:              idKey(sequenceRowID),
		UpdateExpression: aws.String("ADD next_id :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": numberValue(1),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}

	n, ok := result.Attributes["next_id"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("sequence row of %s has no numeric next_id", table)
	}

	return strconv.ParseInt(n.Value, 10, 64)
}

// scan follows LastEvaluatedKey until the table is exhausted.
func (d *DynamoDBFleetStorage) scan(ctx context.Context, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		result, err := d.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)

		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// isRecordID reports whether id can name a record rather than the sequence row.
func isRecordID(id int64) bool {
	return id > sequenceRowID
}

func idKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": numberValue(id),
	}
}

func numberValue(n int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
