package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoConfig holds explicit construction parameters. Credentials fall back
// to the default chain when the static pair is unset; Endpoint enables
// DynamoDB Local.
type DynamoConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Dynamo implements Store on DynamoDB. Conditional writes map directly onto
// ConditionExpression, so the check and the write are one atomic step at the
// table.
type Dynamo struct {
	client *dynamodb.Client
}

func NewDynamo(ctx context.Context, cfg DynamoConfig) (*Dynamo, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Dynamo{client: client}, nil
}

func (d *Dynamo) Get(ctx context.Context, table string, key Key, out any) error {
	kav, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	res, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       kav,
	})
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", ErrUnavailable, table, err)
	}
	if len(res.Item) == 0 {
		return ErrNotFound
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}

func (d *Dynamo) Put(ctx context.Context, table string, item any, cond Condition) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}
	if !cond.empty() {
		expr, err := expression.NewBuilder().WithCondition(cond.builder()).Build()
		if err != nil {
			return fmt.Errorf("build condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	if _, err := d.client.PutItem(ctx, input); err != nil {
		return translateWriteError(table, err)
	}
	return nil
}

func (d *Dynamo) Update(ctx context.Context, table string, key Key, set map[string]any, cond Condition, out any) error {
	kav, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	var upd expression.UpdateBuilder
	for name, value := range set {
		upd = upd.Set(expression.Name(name), expression.Value(value))
	}
	builder := expression.NewBuilder().WithUpdate(upd)
	if !cond.empty() {
		builder = builder.WithCondition(cond.builder())
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       kav,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return translateWriteError(table, err)
	}
	if out != nil {
		return attributevalue.UnmarshalMap(res.Attributes, out)
	}
	return nil
}

func (d *Dynamo) Scan(ctx context.Context, table string, clauses []Clause, out any) error {
	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if len(clauses) > 0 {
		filter, err := filterBuilder(clauses)
		if err != nil {
			return err
		}
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return fmt.Errorf("build filter: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var items []map[string]types.AttributeValue
	for {
		res, err := d.client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("%w: scan %s: %v", ErrUnavailable, table, err)
		}
		items = append(items, res.Items...)
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = res.LastEvaluatedKey
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

func (c Condition) builder() expression.ConditionBuilder {
	var cb expression.ConditionBuilder
	for i, ch := range c.checks {
		var next expression.ConditionBuilder
		switch ch.kind {
		case checkExists:
			next = expression.AttributeExists(expression.Name(ch.attribute))
		case checkNotExists:
			next = expression.AttributeNotExists(expression.Name(ch.attribute))
		case checkEquals:
			next = expression.Name(ch.attribute).Equal(expression.Value(ch.value))
		}
		if i == 0 {
			cb = next
		} else {
			cb = cb.And(next)
		}
	}
	return cb
}

func filterBuilder(clauses []Clause) (expression.ConditionBuilder, error) {
	var cb expression.ConditionBuilder
	for i, cl := range clauses {
		var next expression.ConditionBuilder
		switch cl.Op {
		case OpEqual:
			next = expression.Name(cl.Attribute).Equal(expression.Value(cl.Value))
		case OpGreaterOrEqual:
			next = expression.Name(cl.Attribute).GreaterThanEqual(expression.Value(cl.Value))
		case OpLessOrEqual:
			next = expression.Name(cl.Attribute).LessThanEqual(expression.Value(cl.Value))
		default:
			return cb, fmt.Errorf("unknown operator %q", cl.Op)
		}
		if i == 0 {
			cb = next
		} else {
			cb = cb.And(next)
		}
	}
	return cb, nil
}

func translateWriteError(table string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrPreconditionFailed
	}
	return fmt.Errorf("%w: write %s: %v", ErrUnavailable, table, err)
}
